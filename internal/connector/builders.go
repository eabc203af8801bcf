package connector

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
)

// Builders are pure: they shape a path template and body from arguments and
// perform no I/O. buildImageUpload is the one exception; it opens the local
// image file it is asked to send.

// withKwargs copies kw into dst and returns dst.
func withKwargs(dst map[string]any, kw Kwargs) map[string]any {
	maps.Copy(dst, kw)

	return dst
}

// withQuery appends the non-empty values to path as a query string.
func withQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}

	return path + "?" + values.Encode()
}

// kwString returns kw[key] rendered as a string, and whether it was present.
func kwString(kw Kwargs, key string) (string, bool) {
	v, ok := kw[key]
	if !ok || v == nil {
		return "", false
	}

	return FormatArg(v), true
}

// FormatArg renders an identifier argument as text. JSON-decoded numbers
// arrive as float64 and are printed without an exponent.
func FormatArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func fixedPath(path string) buildFunc {
	return func(_ []any, _ Kwargs) (built, error) {
		return built{path: path}, nil
	}
}

func buildVersion(_ []any, _ Kwargs) (built, error) {
	return built{path: "/"}, nil
}

func buildGuestCreate(args []any, kw Kwargs) (built, error) {
	guest := withKwargs(map[string]any{
		"userid": args[0],
		"vcpus":  args[1],
		"memory": args[2],
	}, kw)

	return built{path: "/guests", body: map[string]any{"guest": guest}}, nil
}

// buildGuestsGetNICInfo filters by the optional userid, nic_id and vswitch
// keyword arguments.
func buildGuestsGetNICInfo(_ []any, kw Kwargs) (built, error) {
	q := url.Values{}

	for _, key := range []string{"userid", "nic_id", "vswitch"} {
		if v, ok := kwString(kw, key); ok {
			q.Set(key, v)
		}
	}

	return built{path: withQuery("/guests/nics", q)}, nil
}

// guestAction builds the body for the single action endpoint shared by the
// guest lifecycle operations.
func guestAction(action string, acceptsKwargs bool) buildFunc {
	return func(_ []any, kw Kwargs) (built, error) {
		body := map[string]any{"action": action}
		if acceptsKwargs {
			withKwargs(body, kw)
		}

		return built{path: "/guests/%s/action", body: body}, nil
	}
}

func guestImageAction(action string) buildFunc {
	return func(args []any, kw Kwargs) (built, error) {
		body := withKwargs(map[string]any{
			"action": action,
			"image":  args[0],
		}, kw)

		return built{path: "/guests/%s/action", body: body}, nil
	}
}

func buildGuestCreateNIC(_ []any, kw Kwargs) (built, error) {
	return built{
		path: "/guests/%s/nic",
		body: map[string]any{"nic": withKwargs(map[string]any{}, kw)},
	}, nil
}

func buildGuestDeleteNIC(_ []any, kw Kwargs) (built, error) {
	return built{path: "/guests/%s/nic/%s", body: withKwargs(map[string]any{}, kw)}, nil
}

func buildNICCouple(args []any, kw Kwargs) (built, error) {
	info := withKwargs(map[string]any{
		"couple":  true,
		"vswitch": args[0],
	}, kw)

	return built{path: "/guests/%s/nic/%s", body: map[string]any{"info": info}}, nil
}

func buildNICUncouple(_ []any, kw Kwargs) (built, error) {
	info := withKwargs(map[string]any{"couple": false}, kw)

	return built{path: "/guests/%s/nic/%s", body: map[string]any{"info": info}}, nil
}

// networkInterface builds the create/delete interface bodies, which differ
// only in the name of their second field.
func networkInterface(secondField string) buildFunc {
	return func(args []any, kw Kwargs) (built, error) {
		iface := withKwargs(map[string]any{
			"os_version": args[0],
			secondField:  args[1],
		}, kw)

		return built{path: "/guests/%s/interface", body: map[string]any{"interface": iface}}, nil
	}
}

func diskList(outer, inner string, acceptsKwargs bool) buildFunc {
	return func(args []any, kw Kwargs) (built, error) {
		info := map[string]any{inner: args[0]}
		if acceptsKwargs {
			withKwargs(info, kw)
		}

		return built{path: "/guests/%s/disks", body: map[string]any{outer: info}}, nil
	}
}

func buildVolume(args []any, kw Kwargs) (built, error) {
	info := withKwargs(map[string]any{
		"os_type":    args[0],
		"volume":     args[1],
		"connection": args[2],
		"rollback":   args[3],
	}, kw)

	return built{path: "/guests/%s/volumes", body: map[string]any{"info": info}}, nil
}

func buildHostDiskpool(_ []any, kw Kwargs) (built, error) {
	q := url.Values{}
	if v, ok := kwString(kw, "disk_pool"); ok {
		q.Set("poolname", v)
	}

	return built{path: withQuery("/host/diskpool", q)}, nil
}

func buildImageImport(args []any, kw Kwargs) (built, error) {
	image := withKwargs(map[string]any{
		"image_name": args[0],
		"url":        args[1],
		"image_meta": args[2],
	}, kw)

	return built{path: "/images", body: map[string]any{"image": image}}, nil
}

func buildImageQuery(_ []any, kw Kwargs) (built, error) {
	q := url.Values{}
	if v, ok := kwString(kw, "imagename"); ok {
		q.Set("imagename", v)
	}

	return built{path: withQuery("/images", q)}, nil
}

func buildImageExport(args []any, kw Kwargs) (built, error) {
	location := withKwargs(map[string]any{"dest_url": args[0]}, kw)

	return built{path: "/images/%s", body: map[string]any{"location": location}}, nil
}

// buildImageUpload opens the local image named by the source URL (a file://
// URL or a bare path) as a raw body. image_meta entries become request
// headers.
func buildImageUpload(args []any, _ Kwargs) (built, error) {
	source, ok := args[0].(string)
	if !ok {
		return built{}, fmt.Errorf("%w: image_upload: source must be a string, got %T", ErrArgumentType, args[0])
	}

	header, err := metaHeaders(args[1])
	if err != nil {
		return built{}, err
	}

	src, err := OpenUploadSource(SourcePath(source))
	if err != nil {
		return built{}, err
	}

	return built{path: "/images/%s/file", body: src, header: header}, nil
}

// SourcePath extracts the local path from a file:// URL; anything that does
// not parse as a URL with a path is used verbatim.
func SourcePath(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Path == "" {
		return source
	}

	return u.Path
}

func metaHeaders(meta any) (map[string]string, error) {
	switch m := meta.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return maps.Clone(m), nil
	case map[string]any:
		header := make(map[string]string, len(m))
		for k, v := range m {
			header[k] = fmt.Sprint(v)
		}

		return header, nil
	case Kwargs:
		return metaHeaders(map[string]any(m))
	default:
		return nil, fmt.Errorf("%w: image_upload: image_meta must be a map, got %T", ErrArgumentType, meta)
	}
}

func buildVswitchCreate(args []any, kw Kwargs) (built, error) {
	vsw := withKwargs(map[string]any{"name": args[0]}, kw)

	return built{path: "/vswitches", body: map[string]any{"vswitch": vsw}}, nil
}

func vswitchUser(field string) buildFunc {
	return func(args []any, kw Kwargs) (built, error) {
		vsw := withKwargs(map[string]any{field: args[0]}, kw)

		return built{path: "/vswitches/%s", body: map[string]any{"vswitch": vsw}}, nil
	}
}

func buildVswitchSetVLAN(args []any, kw Kwargs) (built, error) {
	vsw := withKwargs(map[string]any{
		"user_vlan_id": map[string]any{
			"userid": args[0],
			"vlanid": args[1],
		},
	}, kw)

	return built{path: "/vswitches/%s", body: map[string]any{"vswitch": vsw}}, nil
}
