// File: internal/infra/metrics/metrics.go
package metrics

import "strings"

// namespace prefixes every collector of this service.
const namespace = "tutor"

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
