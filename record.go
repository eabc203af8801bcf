package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/tonimelisma/zvmconnector-go/internal/connector"
	"github.com/tonimelisma/zvmconnector-go/internal/store"
)

// recorder mirrors successful state-changing calls into the local records
// database. Recording never fails a call: the remote change already
// happened, so problems are logged and dropped.
type recorder struct {
	st     *store.Store
	logger *slog.Logger
}

// newRecorder opens the records database. When it cannot be opened the
// recorder is a no-op and the failure is logged.
func newRecorder(ctx context.Context, cc *CLIContext) *recorder {
	st, err := openRecords(ctx, cc)
	if err != nil {
		cc.Logger.Warn("records disabled", slog.String("error", err.Error()))

		return &recorder{logger: cc.Logger}
	}

	return &recorder{st: st, logger: cc.Logger}
}

func (r *recorder) close() {
	if r.st == nil {
		return
	}

	if err := r.st.Close(); err != nil {
		r.logger.Warn("closing records database", slog.String("error", err.Error()))
	}
}

// record applies the outcome of operation name to the local records.
// Failed results and read-only operations are ignored.
func (r *recorder) record(ctx context.Context, name string, args []any, kw connector.Kwargs, res connector.Result) {
	if r == nil || r.st == nil || !res.OK() {
		return
	}

	var err error

	switch name {
	case connector.OpGuestCreate:
		_, err = r.st.AddGuest(ctx, argString(args, 0), "", kwText(kw, "user_profile"))
	case connector.OpGuestDelete:
		userID := argString(args, 0)
		err = errors.Join(r.st.DeleteGuestByUserID(ctx, userID), r.st.DeleteNICsForUser(ctx, userID))
	case connector.OpGuestCreateNIC:
		if vdev := kwText(kw, "vdev"); vdev != "" {
			err = r.st.AddNIC(ctx, argString(args, 0), vdev, "", "")
		}
	case connector.OpGuestDeleteNIC:
		err = r.st.DeleteNIC(ctx, argString(args, 0), argString(args, 1))
	case connector.OpGuestNICCoupleToVswitch:
		err = r.coupleNIC(ctx, argString(args, 0), argString(args, 1), argString(args, 2))
	case connector.OpGuestNICUncoupleFromVswitch:
		err = r.st.SetNICSwitch(ctx, argString(args, 0), argString(args, 1), "")
	case connector.OpVolumeAttach:
		err = r.attachVolume(ctx, argString(args, 0), argAt(args, 2), argAt(args, 3))
	case connector.OpVolumeDetach:
		err = r.detachVolume(ctx, argString(args, 0), argAt(args, 3))
	case connector.OpImageImport:
		meta, _ := argAt(args, 2).(map[string]any)
		_, err = r.st.PutImage(ctx, store.Image{
			Name:     argString(args, 0),
			OSDistro: mapText(meta, "os_version"),
			MD5Sum:   mapText(meta, "md5sum"),
		})
	case connector.OpImageUpload:
		err = r.recordUpload(ctx, argString(args, 0), argString(args, 1))
	case connector.OpImageDelete:
		err = r.st.DeleteImage(ctx, argString(args, 0))
	default:
		return
	}

	// Records made before this database existed are routinely missing.
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrAlreadyExists) {
		r.logger.Warn("recording outcome failed",
			slog.String("operation", name),
			slog.String("error", err.Error()),
		)

		return
	}

	r.logger.Debug("outcome recorded", slog.String("operation", name))
}

// coupleNIC records a coupling, creating the NIC record if it predates the
// database.
func (r *recorder) coupleNIC(ctx context.Context, userID, vdev, vswitch string) error {
	err := r.st.SetNICSwitch(ctx, userID, vdev, vswitch)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if err := r.st.AddNIC(ctx, userID, vdev, "", ""); err != nil {
		return err
	}

	return r.st.SetNICSwitch(ctx, userID, vdev, vswitch)
}

// Defaults for volume records when the request does not say.
const (
	defaultVolumeProtocol = "fc"
	unknownVolumeSize     = "unknown"
)

// attachVolume records a new in-use volume and its attachment to userID.
// The connection info is stored as canonical JSON so a later detach with the
// same connection can find it.
func (r *recorder) attachVolume(ctx context.Context, userID string, volume, connection any) error {
	vol, _ := volume.(map[string]any)
	conn, _ := connection.(map[string]any)

	info, err := json.Marshal(conn)
	if err != nil {
		return err
	}

	nv := store.NewVolume{
		ProtocolType: cmp.Or(mapText(conn, "protocol"), defaultVolumeProtocol),
		Size:         cmp.Or(mapText(vol, "size"), unknownVolumeSize),
	}

	volID, err := r.st.InsertVolume(ctx, nv)
	if err != nil {
		return err
	}

	if _, err := r.st.InsertAttachment(ctx, store.NewAttachment{
		VolumeID:       volID,
		InstanceID:     normalizeGuest(userID),
		ConnectionInfo: string(info),
		Mountpoint:     mapText(conn, "mount_point"),
	}); err != nil {
		return err
	}

	inUse := store.VolumeStatusInUse

	return r.st.UpdateVolume(ctx, volID, store.VolumeUpdate{Status: &inUse})
}

// detachVolume removes the attachment of userID whose connection matches and
// marks its volume free.
func (r *recorder) detachVolume(ctx context.Context, userID string, connection any) error {
	conn, _ := connection.(map[string]any)

	info, err := json.Marshal(conn)
	if err != nil {
		return err
	}

	attachments, err := r.st.AttachmentsByInstance(ctx, normalizeGuest(userID))
	if err != nil {
		return err
	}

	for _, a := range attachments {
		if a.ConnectionInfo != string(info) {
			continue
		}

		if err := r.st.DeleteAttachment(ctx, a.VolumeID, a.InstanceID); err != nil {
			return err
		}

		free := store.VolumeStatusFree

		return r.st.UpdateVolume(ctx, a.VolumeID, store.VolumeUpdate{Status: &free})
	}

	return store.ErrNotFound
}

func (r *recorder) recordUpload(ctx context.Context, imageName, source string) error {
	img := store.Image{Name: imageName}

	if info, err := os.Stat(connector.SourcePath(source)); err == nil {
		img.SizeBytes = info.Size()
	}

	_, err := r.st.PutImage(ctx, img)

	return err
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return nil
}

func argString(args []any, i int) string {
	return text(argAt(args, i))
}

func kwText(kw connector.Kwargs, key string) string {
	return text(kw[key])
}

// text renders an identifier argument the way it appears in request paths.
func text(v any) string {
	switch v.(type) {
	case string, float64, int:
		return connector.FormatArg(v)
	default:
		return ""
	}
}

func normalizeGuest(userID string) string {
	return strings.ToUpper(strings.TrimSpace(userID))
}

func mapText(m map[string]any, key string) string {
	return text(m[key])
}
