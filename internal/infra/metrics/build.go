package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "A constant metric labelled with version, grouping mode and AI provider.",
	},
	[]string{"version", "grouping", "provider"},
)

func SetBuildInfo(version, grouping, provider string) {
	buildInfo.WithLabelValues(version, norm(grouping), norm(provider)).Set(1)
}
