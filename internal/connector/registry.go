package connector

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Operation names understood by the service.
const (
	OpVersion                     = "version"
	OpGuestCreate                 = "guest_create"
	OpGuestList                   = "guest_list"
	OpGuestInspectStats           = "guest_inspect_stats"
	OpGuestInspectVNICs           = "guest_inspect_vnics"
	OpGuestsGetNICInfo            = "guests_get_nic_info"
	OpGuestDelete                 = "guest_delete"
	OpGuestGetDefinitionInfo      = "guest_get_definition_info"
	OpGuestStart                  = "guest_start"
	OpGuestStop                   = "guest_stop"
	OpGuestSoftStop               = "guest_softstop"
	OpGuestPause                  = "guest_pause"
	OpGuestUnpause                = "guest_unpause"
	OpGuestReboot                 = "guest_reboot"
	OpGuestReset                  = "guest_reset"
	OpGuestGetConsoleOutput       = "guest_get_console_output"
	OpGuestCapture                = "guest_capture"
	OpGuestDeploy                 = "guest_deploy"
	OpGuestGetInfo                = "guest_get_info"
	OpGuestGetNICVswitchInfo      = "guest_get_nic_vswitch_info"
	OpGuestCreateNIC              = "guest_create_nic"
	OpGuestDeleteNIC              = "guest_delete_nic"
	OpGuestNICCoupleToVswitch     = "guest_nic_couple_to_vswitch"
	OpGuestNICUncoupleFromVswitch = "guest_nic_uncouple_from_vswitch"
	OpGuestCreateNetworkInterface = "guest_create_network_interface"
	OpGuestDeleteNetworkInterface = "guest_delete_network_interface"
	OpGuestGetPowerState          = "guest_get_power_state"
	OpGuestCreateDisks            = "guest_create_disks"
	OpGuestDeleteDisks            = "guest_delete_disks"
	OpGuestConfigMinidisks        = "guest_config_minidisks"
	OpVolumeAttach                = "volume_attach"
	OpVolumeDetach                = "volume_detach"
	OpHostGetInfo                 = "host_get_info"
	OpHostDiskpoolGetInfo         = "host_diskpool_get_info"
	OpImageImport                 = "image_import"
	OpImageQuery                  = "image_query"
	OpImageDelete                 = "image_delete"
	OpImageExport                 = "image_export"
	OpImageGetRootDiskSize        = "image_get_root_disk_size"
	OpImageUpload                 = "image_upload"
	OpImageDownload               = "image_download"
	OpTokenCreate                 = "token_create"
	OpVswitchGetList              = "vswitch_get_list"
	OpVswitchCreate               = "vswitch_create"
	OpVswitchDelete               = "vswitch_delete"
	OpVswitchQuery                = "vswitch_query"
	OpVswitchGrantUser            = "vswitch_grant_user"
	OpVswitchRevokeUser           = "vswitch_revoke_user"
	OpVswitchSetVLANIDForUser     = "vswitch_set_vlan_id_for_user"
)

// Kwargs holds keyword arguments. They are merged into the request body by
// builders that accept them and ignored by the rest.
type Kwargs map[string]any

// built is what a builder produces: a URL path template whose %s
// placeholders take the path arguments, and an optional body and headers.
type built struct {
	path   string
	body   any
	header map[string]string
}

// buildFunc shapes one operation's request. args holds only the positional
// arguments left after the path arguments were consumed.
type buildFunc func(args []any, kw Kwargs) (built, error)

type descriptor struct {
	method       string
	argsRequired int
	pathArgs     int
	binary       bool // octet-stream transfer
	build        buildFunc
}

// Descriptor is the read-only view of one registry entry.
type Descriptor struct {
	Name         string `json:"name"`
	Method       string `json:"method"`
	ArgsRequired int    `json:"args_required"`
	PathArgs     int    `json:"path_args"`
	Binary       bool   `json:"binary"`
}

// operations is populated once at package init and never written again.
var operations = map[string]descriptor{
	OpVersion:                     {http.MethodGet, 0, 0, false, buildVersion},
	OpGuestCreate:                 {http.MethodPost, 3, 0, false, buildGuestCreate},
	OpGuestList:                   {http.MethodGet, 0, 0, false, fixedPath("/guests")},
	OpGuestInspectStats:           {http.MethodGet, 1, 1, false, fixedPath("/guests/stats?userid=%s")},
	OpGuestInspectVNICs:           {http.MethodGet, 1, 1, false, fixedPath("/guests/vnicsinfo?userid=%s")},
	OpGuestsGetNICInfo:            {http.MethodGet, 0, 0, false, buildGuestsGetNICInfo},
	OpGuestDelete:                 {http.MethodDelete, 1, 1, false, fixedPath("/guests/%s")},
	OpGuestGetDefinitionInfo:      {http.MethodGet, 1, 1, false, fixedPath("/guests/%s")},
	OpGuestStart:                  {http.MethodPost, 1, 1, false, guestAction("start", false)},
	OpGuestStop:                   {http.MethodPost, 1, 1, false, guestAction("stop", true)},
	OpGuestSoftStop:               {http.MethodPost, 1, 1, false, guestAction("softstop", true)},
	OpGuestPause:                  {http.MethodPost, 1, 1, false, guestAction("pause", false)},
	OpGuestUnpause:                {http.MethodPost, 1, 1, false, guestAction("unpause", false)},
	OpGuestReboot:                 {http.MethodPost, 1, 1, false, guestAction("reboot", false)},
	OpGuestReset:                  {http.MethodPost, 1, 1, false, guestAction("reset", false)},
	OpGuestGetConsoleOutput:       {http.MethodPost, 1, 1, false, guestAction("get_console_output", false)},
	OpGuestCapture:                {http.MethodPost, 2, 1, false, guestImageAction("capture")},
	OpGuestDeploy:                 {http.MethodPost, 2, 1, false, guestImageAction("deploy")},
	OpGuestGetInfo:                {http.MethodGet, 1, 1, false, fixedPath("/guests/%s/info")},
	OpGuestGetNICVswitchInfo:      {http.MethodGet, 1, 1, false, fixedPath("/guests/%s/nic")},
	OpGuestCreateNIC:              {http.MethodPost, 1, 1, false, buildGuestCreateNIC},
	OpGuestDeleteNIC:              {http.MethodDelete, 2, 2, false, buildGuestDeleteNIC},
	OpGuestNICCoupleToVswitch:     {http.MethodPut, 3, 2, false, buildNICCouple},
	OpGuestNICUncoupleFromVswitch: {http.MethodPut, 2, 2, false, buildNICUncouple},
	OpGuestCreateNetworkInterface: {http.MethodPost, 3, 1, false, networkInterface("guest_networks")},
	OpGuestDeleteNetworkInterface: {http.MethodDelete, 3, 1, false, networkInterface("vdev")},
	OpGuestGetPowerState:          {http.MethodGet, 1, 1, false, fixedPath("/guests/%s/power_state")},
	OpGuestCreateDisks:            {http.MethodPost, 2, 1, false, diskList("disk_info", "disk_list", false)},
	OpGuestDeleteDisks:            {http.MethodDelete, 2, 1, false, diskList("vdev_info", "vdev_list", false)},
	OpGuestConfigMinidisks:        {http.MethodPut, 2, 1, false, diskList("disk_info", "disk_list", true)},
	OpVolumeAttach:                {http.MethodPost, 5, 1, false, buildVolume},
	OpVolumeDetach:                {http.MethodDelete, 5, 1, false, buildVolume},
	OpHostGetInfo:                 {http.MethodGet, 0, 0, false, fixedPath("/host")},
	OpHostDiskpoolGetInfo:         {http.MethodGet, 0, 0, false, buildHostDiskpool},
	OpImageImport:                 {http.MethodPost, 3, 0, false, buildImageImport},
	OpImageQuery:                  {http.MethodGet, 0, 0, false, buildImageQuery},
	OpImageDelete:                 {http.MethodDelete, 1, 1, false, fixedPath("/images/%s")},
	OpImageExport:                 {http.MethodPut, 2, 1, false, buildImageExport},
	OpImageGetRootDiskSize:        {http.MethodGet, 1, 1, false, fixedPath("/images/%s/root_disk_size")},
	OpImageUpload:                 {http.MethodPut, 3, 1, true, buildImageUpload},
	OpImageDownload:               {http.MethodGet, 1, 1, true, fixedPath("/images/%s/file")},
	OpTokenCreate:                 {http.MethodPost, 0, 0, false, fixedPath(tokenPath)},
	OpVswitchGetList:              {http.MethodGet, 0, 0, false, fixedPath("/vswitches")},
	OpVswitchCreate:               {http.MethodPost, 1, 0, false, buildVswitchCreate},
	OpVswitchDelete:               {http.MethodDelete, 1, 1, false, fixedPath("/vswitches/%s")},
	OpVswitchQuery:                {http.MethodGet, 1, 1, false, fixedPath("/vswitches/%s")},
	OpVswitchGrantUser:            {http.MethodPut, 2, 1, false, vswitchUser("grant_userid")},
	OpVswitchRevokeUser:           {http.MethodPut, 2, 1, false, vswitchUser("revoke_userid")},
	OpVswitchSetVLANIDForUser:     {http.MethodPut, 3, 1, false, buildVswitchSetVLAN},
}

// Lookup returns the registry entry for name, or ErrUnknownOperation.
func Lookup(name string) (Descriptor, error) {
	d, ok := operations[name]
	if !ok {
		return Descriptor{}, &UnknownOperationError{Name: name}
	}

	return Descriptor{
		Name:         name,
		Method:       d.method,
		ArgsRequired: d.argsRequired,
		PathArgs:     d.pathArgs,
		Binary:       d.binary,
	}, nil
}

// Names returns every registered operation name, sorted.
func Names() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// validateArgs checks that name is registered and that exactly the required
// number of positional arguments was supplied. There are no optional
// positional arguments.
func validateArgs(name string, args []any) (descriptor, error) {
	d, ok := operations[name]
	if !ok {
		return descriptor{}, &UnknownOperationError{Name: name}
	}

	switch {
	case len(args) < d.argsRequired:
		return descriptor{}, fmt.Errorf("%w: %s: missing arguments: want %d, got %d",
			ErrArgumentCount, name, d.argsRequired, len(args))
	case len(args) > d.argsRequired:
		return descriptor{}, fmt.Errorf("%w: %s: too many arguments: want %d, got %d",
			ErrArgumentCount, name, d.argsRequired, len(args))
	}

	return d, nil
}

// substitutePath fills the %s placeholders of template, in order, with the
// escaped FormatArg form of pathArgs. Placeholders after the '?' are
// query-escaped.
func substitutePath(template string, pathArgs []any) string {
	if len(pathArgs) == 0 {
		return template
	}

	var b strings.Builder

	rest := template
	for _, arg := range pathArgs {
		i := strings.Index(rest, "%s")
		if i < 0 {
			break
		}

		b.WriteString(rest[:i])

		if strings.Contains(b.String(), "?") {
			b.WriteString(url.QueryEscape(FormatArg(arg)))
		} else {
			b.WriteString(url.PathEscape(FormatArg(arg)))
		}

		rest = rest[i+2:]
	}

	b.WriteString(rest)

	return b.String()
}
