// Package network provides pre-configured HTTP clients for API and CDN communication.
//
// The spoofed client in this file leverages refraction-networking/utls to
// emulate Chrome's Client Hello signature. Some stream CDNs reject the default
// Go TLS fingerprint; mimicking prevalent browser traffic keeps segment fetches
// from being challenged.
//
// Protocol negotiation: an HTTP/2 connection is attempted first. If the
// handshake fails or the server only speaks HTTP/1.1, the request transparently
// falls back to an H1 transport with forced protocol advertisement.
package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/spf13/viper"
	"golang.org/x/net/http2"

	"github.com/tidewave-cli/tidewave/key"
)

const tlsDialTimeout = 30 * time.Second

// SpoofedClient returns an HTTP client with a browser TLS fingerprint when
// network.tls_spoof is enabled, and the shared plain client otherwise.
func SpoofedClient() *http.Client {
	if !viper.GetBool(key.NetworkTLSSpoof) {
		return Client
	}
	return &http.Client{
		Timeout:   Client.Timeout,
		Transport: &spoofedTransport{},
	}
}

// spoofedTransport routes requests through the H2 uTLS transport and falls
// back to HTTP/1.1 when the H2 handshake is rejected.
type spoofedTransport struct{}

func (spoofedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := getH2Transport().RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, fmt.Errorf("reset request body: %w", bodyErr)
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return h1Transport.RoundTrip(req)
}

// h2Transport is a shared HTTP/2 transport for servers that negotiate h2.
var (
	h2Transport     *http2.Transport
	h2TransportOnce sync.Once
)

func getH2Transport() *http2.Transport {
	h2TransportOnce.Do(func() {
		h2Transport = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return h2Transport
}

// h1Transport is a shared HTTP/1.1 transport for servers that negotiate http/1.1.
var h1Transport = &http.Transport{
	DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLS(ctx, network, addr, []string{"http/1.1"})
	},
}

// dialTLS creates a TLS connection mimicking Chrome 120's fingerprint.
// A nil protos slice advertises both h2 and http/1.1, which is natural Chrome behavior.
func dialTLS(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: tlsDialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
