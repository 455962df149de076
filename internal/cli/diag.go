package cli

import "strings"

// DiagText walks a handle's diagnostic records sequentially and joins them
// into one human-readable payload. Retrieval failures stop the walk; the
// result is never empty, so callers can always attach it to an error.
func DiagText(c Client, handleType int16, h Handle) string {
	var parts []string
	for rec := 1; ; rec++ {
		r, status := c.DiagRec(handleType, h, rec)
		if !status.OK() {
			break
		}
		state := strings.TrimSpace(r.State)
		msg := strings.TrimSpace(r.Message)
		switch {
		case state != "" && msg != "":
			parts = append(parts, state+" "+msg)
		case msg != "":
			parts = append(parts, msg)
		case state != "":
			parts = append(parts, state)
		}
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, "; ")
}
