// Package buildinfo holds values stamped at link time with
//
//	-ldflags "-X courierplan/internal/buildinfo.Version=..."
package buildinfo

import "runtime/debug"

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    out := map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
    if bi, ok := debug.ReadBuildInfo(); ok {
        out["go"] = bi.GoVersion
        if Commit == "" {
            for _, s := range bi.Settings {
                if s.Key == "vcs.revision" { out["commit"] = s.Value }
            }
        }
    }
    return out
}

// String is the one-line form printed by `courier version`.
func String() string {
    i := Info()
    s := i["version"]
    if c := i["commit"]; c != "" {
        if len(c) > 12 { c = c[:12] }
        s += " (" + c + ")"
    }
    if i["go"] != "" { s += " " + i["go"] }
    return s
}
