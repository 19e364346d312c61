// Command httpprobe sends one request to a running server and prints the
// response.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/client"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

type options struct {
	addr string
	unix bool
	path string
	data string
	gzip bool
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:4221", "server address, or socket path with -unix")
	flag.BoolVar(&opts.unix, "unix", false, "connect to a Unix domain socket")
	flag.StringVar(&opts.path, "path", "/", "request target")
	flag.StringVar(&opts.data, "data", "", "send a POST with this body")
	flag.BoolVar(&opts.gzip, "gzip", false, "send Accept-Encoding: gzip")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if err := run(opts); err != nil {
		logger.Error().Err(err).Str("addr", opts.addr).Str("path", opts.path).Msg("request failed")
		os.Exit(1)
	}
}

// run returns instead of exiting so the connection is always closed
func run(opts options) error {
	trans, err := dial(opts.addr, opts.unix)
	if err != nil {
		return err
	}
	c := client.NewHttpClient(trans)
	defer c.Close()

	req := &protocol.HttpRequest{
		Path: opts.path,
		Headers: protocol.HttpHeaders{
			{Key: "Host", Value: opts.addr},
			{Key: "User-Agent", Value: "httpprobe/1.0"},
			{Key: "Connection", Value: "close"},
		},
	}
	if opts.gzip {
		req.Headers.Add("Accept-Encoding", "gzip")
	}

	var res *protocol.ParsedResponse
	if opts.data != "" {
		req.Headers.Add("Content-Length", strconv.Itoa(len(opts.data)))
		req.Body = []byte(opts.data)
		res, err = c.Post(req)
	} else {
		res, err = c.Get(req)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d %s\n", res.StatusCode, res.StatusMessage)
	for _, h := range res.Headers {
		fmt.Printf("%s: %s\n", h.Key, h.Value)
	}
	fmt.Println()
	_, err = os.Stdout.Write(res.Body)
	return err
}

func dial(addr string, unix bool) (transport.Transport, error) {
	if unix {
		t, err := transport.DialUnix(addr)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, err
	}
	t, err := transport.DialTcp(host, uint16(port))
	if err != nil {
		return nil, err
	}
	return t, nil
}
