// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/websockets"
	"github.com/tokenvote/tokenvote/util"
)

// cmdSubscribe subscribes to server notifications and prints them until it
// is interrupted.
type cmdSubscribe struct {
	Args struct {
		Notifications []string `positional-arg-name:"notifications"`
	} `positional-args:"true"`
}

// wsURL returns the websocket URL of the configured host.
func wsURL(host string) (string, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported host scheme '%v'", u.Scheme)
	}
	u.Path = v1.APIRoute + v1.RouteWebsocket
	return u.String(), nil
}

// Execute executes the cmdSubscribe command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdSubscribe) Execute(args []string) error {
	rpcs := c.Args.Notifications
	if len(rpcs) == 0 {
		rpcs = []string{v1.WSCBlock, v1.WSCElectionClosed}
	}
	for _, v := range rpcs {
		if !websockets.ValidSubscription(v) {
			return fmt.Errorf("invalid notification '%v'", v)
		}
	}

	h, err := util.NewHTTPClient(cfg.SkipVerify,
		util.CleanAndExpandPath(cfg.HTTPSCert))
	if err != nil {
		return err
	}
	u, err := wsURL(cfg.Host)
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{
		TLSClientConfig: h.Transport.(*http.Transport).TLSClientConfig,
	}
	conn, _, err := dialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial %v: %v", u, err)
	}
	defer conn.Close()

	err = websockets.Write(conn, v1.WSCSubscribe, "subscribe",
		v1.WSSubscribe{RPCS: rpcs})
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	done := make(chan struct{})
	go func() {
		<-quit
		close(done)
		conn.Close()
	}()

	for {
		cmd, payload, err := websockets.ReadNotification(conn)
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			return err
		}
		if cfg.Verbose {
			fmt.Printf("%v\n", cmd)
		}
		err = printReply(payload)
		if err != nil {
			return err
		}
	}
}
