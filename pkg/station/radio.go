package station

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/robotalks/teststand/pkg/radio"
	"github.com/robotalks/teststand/pkg/radio/loopback"
	radiomqtt "github.com/robotalks/teststand/pkg/radio/mqtt"
	"github.com/robotalks/teststand/pkg/radio/stream"
	"github.com/robotalks/teststand/pkg/radio/websocket"
)

// Radio is an open radio link.
type Radio interface {
	radio.Transport
	io.Closer
}

// OpenRadio opens the link selected by rawURL:
//
//	loop://name             in-process pipe, both roles in one process
//	tcp://host:port         dial a station listening on tcp
//	tcp+listen://host:port  listen for the peer on tcp
//	ws://host:port/path     dial a station listening on websocket
//	ws+listen://host:port/path
//	mqtt://host:port/prefix bridge both stations through a broker
func OpenRadio(ctx context.Context, rawURL string, role Role) (Radio, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid radio URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "loop":
		name := u.Host + u.Path
		return radio.NewLink(loopback.Dial(name)), nil
	case "tcp":
		return stream.Dial(u.Host)
	case "tcp+listen":
		return stream.Listen(u.Host)
	case "ws":
		return websocket.Dial(rawURL)
	case "ws+listen":
		path := u.Path
		if path == "" {
			path = "/"
		}
		return websocket.Listen(u.Host, path)
	case "mqtt":
		return radiomqtt.Dial(ctx, rawURL, role == Home)
	}
	return nil, fmt.Errorf("unknown radio URL scheme: %q", u.Scheme)
}
