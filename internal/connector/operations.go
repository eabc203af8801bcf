package connector

// Operation is a typed request for one registry entry. The set is closed:
// only the types in this file implement it, and each carries exactly the
// positional arguments its entry requires, so arity mistakes are caught by
// the compiler. Options, where present, are keyword arguments merged into
// the request body.
type Operation interface {
	Name() string
	arguments() ([]any, Kwargs)
}

// Version queries the service version.
type Version struct{}

func (Version) Name() string               { return OpVersion }
func (Version) arguments() ([]any, Kwargs) { return nil, nil }

// GuestCreate defines a new guest.
type GuestCreate struct {
	UserID  string
	VCPUs   int
	Memory  int // MiB
	Options Kwargs
}

func (GuestCreate) Name() string { return OpGuestCreate }
func (o GuestCreate) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.VCPUs, o.Memory}, o.Options
}

// GuestList lists defined guests.
type GuestList struct{}

func (GuestList) Name() string               { return OpGuestList }
func (GuestList) arguments() ([]any, Kwargs) { return nil, nil }

// GuestInspectStats fetches CPU and memory statistics for a guest.
type GuestInspectStats struct{ UserID string }

func (GuestInspectStats) Name() string                 { return OpGuestInspectStats }
func (o GuestInspectStats) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestInspectVNICs fetches virtual NIC statistics for a guest.
type GuestInspectVNICs struct{ UserID string }

func (GuestInspectVNICs) Name() string                 { return OpGuestInspectVNICs }
func (o GuestInspectVNICs) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestsGetNICInfo lists NICs, optionally filtered by the userid, nic_id and
// vswitch options.
type GuestsGetNICInfo struct{ Filter Kwargs }

func (GuestsGetNICInfo) Name() string                 { return OpGuestsGetNICInfo }
func (o GuestsGetNICInfo) arguments() ([]any, Kwargs) { return nil, o.Filter }

// GuestDelete deletes a guest.
type GuestDelete struct{ UserID string }

func (GuestDelete) Name() string                 { return OpGuestDelete }
func (o GuestDelete) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestGetDefinitionInfo returns a guest's directory definition.
type GuestGetDefinitionInfo struct{ UserID string }

func (GuestGetDefinitionInfo) Name() string                 { return OpGuestGetDefinitionInfo }
func (o GuestGetDefinitionInfo) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestStart powers a guest on.
type GuestStart struct{ UserID string }

func (GuestStart) Name() string                 { return OpGuestStart }
func (o GuestStart) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestStop powers a guest off. Options may carry timeout and poll_interval.
type GuestStop struct {
	UserID  string
	Options Kwargs
}

func (GuestStop) Name() string                 { return OpGuestStop }
func (o GuestStop) arguments() ([]any, Kwargs) { return []any{o.UserID}, o.Options }

// GuestSoftStop asks the guest OS to shut down.
type GuestSoftStop struct {
	UserID  string
	Options Kwargs
}

func (GuestSoftStop) Name() string                 { return OpGuestSoftStop }
func (o GuestSoftStop) arguments() ([]any, Kwargs) { return []any{o.UserID}, o.Options }

// GuestPause pauses a guest.
type GuestPause struct{ UserID string }

func (GuestPause) Name() string                 { return OpGuestPause }
func (o GuestPause) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestUnpause resumes a paused guest.
type GuestUnpause struct{ UserID string }

func (GuestUnpause) Name() string                 { return OpGuestUnpause }
func (o GuestUnpause) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestReboot reboots a guest.
type GuestReboot struct{ UserID string }

func (GuestReboot) Name() string                 { return OpGuestReboot }
func (o GuestReboot) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestReset resets a guest.
type GuestReset struct{ UserID string }

func (GuestReset) Name() string                 { return OpGuestReset }
func (o GuestReset) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestGetConsoleOutput fetches a guest's console output.
type GuestGetConsoleOutput struct{ UserID string }

func (GuestGetConsoleOutput) Name() string                 { return OpGuestGetConsoleOutput }
func (o GuestGetConsoleOutput) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestCapture captures a guest's root disk as an image.
type GuestCapture struct {
	UserID    string
	ImageName string
	Options   Kwargs
}

func (GuestCapture) Name() string { return OpGuestCapture }
func (o GuestCapture) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.ImageName}, o.Options
}

// GuestDeploy deploys an image onto a guest.
type GuestDeploy struct {
	UserID    string
	ImageName string
	Options   Kwargs
}

func (GuestDeploy) Name() string { return OpGuestDeploy }
func (o GuestDeploy) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.ImageName}, o.Options
}

// GuestGetInfo returns power state, memory and CPU information.
type GuestGetInfo struct{ UserID string }

func (GuestGetInfo) Name() string                 { return OpGuestGetInfo }
func (o GuestGetInfo) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestGetNICVswitchInfo returns the NIC to vswitch mapping of a guest.
type GuestGetNICVswitchInfo struct{ UserID string }

func (GuestGetNICVswitchInfo) Name() string                 { return OpGuestGetNICVswitchInfo }
func (o GuestGetNICVswitchInfo) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestCreateNIC adds a NIC; Options carry vdev, nic_id, mac_addr, ip_addr
// and active.
type GuestCreateNIC struct {
	UserID  string
	Options Kwargs
}

func (GuestCreateNIC) Name() string                 { return OpGuestCreateNIC }
func (o GuestCreateNIC) arguments() ([]any, Kwargs) { return []any{o.UserID}, o.Options }

// GuestDeleteNIC removes the NIC at VDev.
type GuestDeleteNIC struct {
	UserID  string
	VDev    string
	Options Kwargs
}

func (GuestDeleteNIC) Name() string { return OpGuestDeleteNIC }
func (o GuestDeleteNIC) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.VDev}, o.Options
}

// GuestNICCoupleToVswitch couples the NIC at VDev to a vswitch.
type GuestNICCoupleToVswitch struct {
	UserID  string
	VDev    string
	Vswitch string
	Options Kwargs
}

func (GuestNICCoupleToVswitch) Name() string { return OpGuestNICCoupleToVswitch }
func (o GuestNICCoupleToVswitch) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.VDev, o.Vswitch}, o.Options
}

// GuestNICUncoupleFromVswitch uncouples the NIC at VDev.
type GuestNICUncoupleFromVswitch struct {
	UserID  string
	VDev    string
	Options Kwargs
}

func (GuestNICUncoupleFromVswitch) Name() string { return OpGuestNICUncoupleFromVswitch }
func (o GuestNICUncoupleFromVswitch) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.VDev}, o.Options
}

// GuestCreateNetworkInterface configures guest networking.
type GuestCreateNetworkInterface struct {
	UserID        string
	OSVersion     string
	GuestNetworks []map[string]any
	Options       Kwargs
}

func (GuestCreateNetworkInterface) Name() string { return OpGuestCreateNetworkInterface }
func (o GuestCreateNetworkInterface) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.OSVersion, o.GuestNetworks}, o.Options
}

// GuestDeleteNetworkInterface removes the interface at VDev.
type GuestDeleteNetworkInterface struct {
	UserID    string
	OSVersion string
	VDev      string
	Options   Kwargs
}

func (GuestDeleteNetworkInterface) Name() string { return OpGuestDeleteNetworkInterface }
func (o GuestDeleteNetworkInterface) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.OSVersion, o.VDev}, o.Options
}

// GuestGetPowerState returns "on" or "off".
type GuestGetPowerState struct{ UserID string }

func (GuestGetPowerState) Name() string                 { return OpGuestGetPowerState }
func (o GuestGetPowerState) arguments() ([]any, Kwargs) { return []any{o.UserID}, nil }

// GuestCreateDisks adds disks described by DiskList.
type GuestCreateDisks struct {
	UserID   string
	DiskList []map[string]any
}

func (GuestCreateDisks) Name() string { return OpGuestCreateDisks }
func (o GuestCreateDisks) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.DiskList}, nil
}

// GuestDeleteDisks removes the disks at the listed virtual device numbers.
type GuestDeleteDisks struct {
	UserID   string
	VDevList []string
}

func (GuestDeleteDisks) Name() string { return OpGuestDeleteDisks }
func (o GuestDeleteDisks) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.VDevList}, nil
}

// GuestConfigMinidisks formats and mounts minidisks inside the guest.
type GuestConfigMinidisks struct {
	UserID   string
	DiskList []map[string]any
	Options  Kwargs
}

func (GuestConfigMinidisks) Name() string { return OpGuestConfigMinidisks }
func (o GuestConfigMinidisks) arguments() ([]any, Kwargs) {
	return []any{o.UserID, o.DiskList}, o.Options
}

// VolumeInfo describes a volume attach or detach request.
type VolumeInfo struct {
	OSType     string
	Volume     map[string]any
	Connection map[string]any
	Rollback   bool
}

func (v VolumeInfo) arguments(userID string) []any {
	return []any{userID, v.OSType, v.Volume, v.Connection, v.Rollback}
}

// VolumeAttach attaches a volume to a guest.
type VolumeAttach struct {
	UserID  string
	Info    VolumeInfo
	Options Kwargs
}

func (VolumeAttach) Name() string                 { return OpVolumeAttach }
func (o VolumeAttach) arguments() ([]any, Kwargs) { return o.Info.arguments(o.UserID), o.Options }

// VolumeDetach detaches a volume from a guest.
type VolumeDetach struct {
	UserID  string
	Info    VolumeInfo
	Options Kwargs
}

func (VolumeDetach) Name() string                 { return OpVolumeDetach }
func (o VolumeDetach) arguments() ([]any, Kwargs) { return o.Info.arguments(o.UserID), o.Options }

// HostGetInfo returns hypervisor host information.
type HostGetInfo struct{}

func (HostGetInfo) Name() string               { return OpHostGetInfo }
func (HostGetInfo) arguments() ([]any, Kwargs) { return nil, nil }

// HostDiskpoolGetInfo returns disk pool capacity; DiskPool may be empty.
type HostDiskpoolGetInfo struct{ DiskPool string }

func (HostDiskpoolGetInfo) Name() string { return OpHostDiskpoolGetInfo }
func (o HostDiskpoolGetInfo) arguments() ([]any, Kwargs) {
	if o.DiskPool == "" {
		return nil, nil
	}

	return nil, Kwargs{"disk_pool": o.DiskPool}
}

// ImageImport imports an image from a URL on the service side.
type ImageImport struct {
	ImageName string
	URL       string
	ImageMeta map[string]any
	Options   Kwargs
}

func (ImageImport) Name() string { return OpImageImport }
func (o ImageImport) arguments() ([]any, Kwargs) {
	return []any{o.ImageName, o.URL, o.ImageMeta}, o.Options
}

// ImageQuery lists images, optionally only ImageName.
type ImageQuery struct{ ImageName string }

func (ImageQuery) Name() string { return OpImageQuery }
func (o ImageQuery) arguments() ([]any, Kwargs) {
	if o.ImageName == "" {
		return nil, nil
	}

	return nil, Kwargs{"imagename": o.ImageName}
}

// ImageDelete deletes an image.
type ImageDelete struct{ ImageName string }

func (ImageDelete) Name() string                 { return OpImageDelete }
func (o ImageDelete) arguments() ([]any, Kwargs) { return []any{o.ImageName}, nil }

// ImageExport exports an image to DestURL on the service side.
type ImageExport struct {
	ImageName string
	DestURL   string
	Options   Kwargs
}

func (ImageExport) Name() string { return OpImageExport }
func (o ImageExport) arguments() ([]any, Kwargs) {
	return []any{o.ImageName, o.DestURL}, o.Options
}

// ImageGetRootDiskSize returns the root disk size recorded for an image.
type ImageGetRootDiskSize struct{ ImageName string }

func (ImageGetRootDiskSize) Name() string                 { return OpImageGetRootDiskSize }
func (o ImageGetRootDiskSize) arguments() ([]any, Kwargs) { return []any{o.ImageName}, nil }

// ImageUpload streams a local file as the image content. Source is a local
// path or file:// URL; Meta entries are sent as request headers.
type ImageUpload struct {
	ImageName string
	Source    string
	Meta      map[string]string
}

func (ImageUpload) Name() string { return OpImageUpload }
func (o ImageUpload) arguments() ([]any, Kwargs) {
	return []any{o.ImageName, o.Source, o.Meta}, nil
}

// ImageDownload streams the image content back.
type ImageDownload struct{ ImageName string }

func (ImageDownload) Name() string                 { return OpImageDownload }
func (o ImageDownload) arguments() ([]any, Kwargs) { return []any{o.ImageName}, nil }

// TokenCreate calls the token endpoint as an ordinary operation.
type TokenCreate struct{}

func (TokenCreate) Name() string               { return OpTokenCreate }
func (TokenCreate) arguments() ([]any, Kwargs) { return nil, nil }

// VswitchGetList lists virtual switches.
type VswitchGetList struct{}

func (VswitchGetList) Name() string               { return OpVswitchGetList }
func (VswitchGetList) arguments() ([]any, Kwargs) { return nil, nil }

// VswitchCreate defines a virtual switch.
type VswitchCreate struct {
	Vswitch string
	Options Kwargs
}

func (VswitchCreate) Name() string                 { return OpVswitchCreate }
func (o VswitchCreate) arguments() ([]any, Kwargs) { return []any{o.Vswitch}, o.Options }

// VswitchDelete deletes a virtual switch.
type VswitchDelete struct{ Vswitch string }

func (VswitchDelete) Name() string                 { return OpVswitchDelete }
func (o VswitchDelete) arguments() ([]any, Kwargs) { return []any{o.Vswitch}, nil }

// VswitchQuery returns a virtual switch's definition.
type VswitchQuery struct{ Vswitch string }

func (VswitchQuery) Name() string                 { return OpVswitchQuery }
func (o VswitchQuery) arguments() ([]any, Kwargs) { return []any{o.Vswitch}, nil }

// VswitchGrantUser authorizes a guest on a virtual switch.
type VswitchGrantUser struct {
	Vswitch string
	UserID  string
	Options Kwargs
}

func (VswitchGrantUser) Name() string { return OpVswitchGrantUser }
func (o VswitchGrantUser) arguments() ([]any, Kwargs) {
	return []any{o.Vswitch, o.UserID}, o.Options
}

// VswitchRevokeUser removes a guest's authorization on a virtual switch.
type VswitchRevokeUser struct {
	Vswitch string
	UserID  string
	Options Kwargs
}

func (VswitchRevokeUser) Name() string { return OpVswitchRevokeUser }
func (o VswitchRevokeUser) arguments() ([]any, Kwargs) {
	return []any{o.Vswitch, o.UserID}, o.Options
}

// VswitchSetVLANIDForUser sets a guest's VLAN id on a virtual switch.
type VswitchSetVLANIDForUser struct {
	Vswitch string
	UserID  string
	VLANID  int
	Options Kwargs
}

func (VswitchSetVLANIDForUser) Name() string { return OpVswitchSetVLANIDForUser }
func (o VswitchSetVLANIDForUser) arguments() ([]any, Kwargs) {
	return []any{o.Vswitch, o.UserID, o.VLANID}, o.Options
}
