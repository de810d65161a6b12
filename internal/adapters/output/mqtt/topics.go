package mqtt

import (
	"fmt"
	"strings"
)

// topics of one device behind the gateway:
//
//	<prefix>/<host>/status   retained status document, published by the gateway
//	<prefix>/<host>/control  {"<key>": <value>} commands, published by the bridge
type topics struct {
	status  string
	control string
}

func deviceTopics(prefix, host string) (topics, error) {
	if host == "" || strings.ContainsAny(host, "/+#") {
		return topics{}, fmt.Errorf("%w: host %q", ErrInvalidTopic, host)
	}
	base := strings.TrimSuffix(prefix, "/") + "/" + host
	return topics{status: base + "/status", control: base + "/control"}, nil
}
