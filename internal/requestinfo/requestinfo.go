//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight per-request metadata: client IP, parsed user-agent, URL,
//  and timestamp.  The structs are inert.  They hold no database handles
//  or large buffers, so they are safe to log, audit, or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer   (UA parsing)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
)

// UA carries the user-agent attributes recorded in the audit log.
type UA struct {
	Raw     string // entire User-Agent header
	Browser string // "Chrome", "Firefox", "Safari", ...
	Version string // "125.0.6422"
	OS      string // "MacOSX", "Windows", "Android", ...
	Device  string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot   bool
}

// Info is attached to the request context by Enrich and is the source
// of the actor IP and user-agent persisted with every audited mutation.
type Info struct {
	IP        net.IP
	UA        UA
	URL       *url.URL // pointer copy, safe to dereference read-only
	Timestamp time.Time
}

// IPString renders the client address, or "" when none was resolvable.
func (i *Info) IPString() string {
	if i == nil || i.IP == nil {
		return ""
	}
	return i.IP.String()
}

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	u := surfer.Parse(raw)

	out := UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: versionToString(u.Browser.Version),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		IsBot:   u.IsBot(),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}

	return out
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
