package instance

import "os"

// GetID returns an identifier for this process, used to tell replicas apart
// in logs. MEMBERCARDS_INSTANCE_ID wins, then the platform dyno name, then
// the hostname.
func GetID() string {
	for _, key := range []string{"MEMBERCARDS_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
