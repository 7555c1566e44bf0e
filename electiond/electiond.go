// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/localdb"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/mysql"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/postgres"
	"github.com/tokenvote/tokenvote/electiond/websockets"
	"github.com/tokenvote/tokenvote/util"
	"golang.org/x/sync/errgroup"
)

// electiond is the application context.
type electiond struct {
	cfg      *config
	backend  backend.Backend
	router   *mux.Router
	identity *identity.FullIdentity
	ws       *websockets.Manager
	cron     *cron.Cron

	// announced contains the elections that have been announced as
	// closed. The value is whether the election was executed when it was
	// announced.
	sync.Mutex
	announced map[uint64]bool
}

// handleNotFound is a generic handler for an invalid route.
func (e *electiond) handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Debugf("Invalid route: %v %v %v %v", util.RemoteAddr(r), r.Method,
		r.URL, r.Proto)

	util.RespondWithJSON(w, http.StatusNotFound, v1.ServerErrorReply{})
}

// check returns whether the provided credentials match the admin
// credentials.
func (e *electiond) check(user, pass string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(e.cfg.RPCUser))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(e.cfg.RPCPass))
	return u&p == 1
}

// privileged returns whether the request carries valid admin credentials.
// Requests that carry invalid credentials are rejected with a 401 and false
// is returned for ok.
func (e *electiond) privileged(w http.ResponseWriter, r *http.Request) (privileged bool, ok bool) {
	user, pass, found := r.BasicAuth()
	if !found {
		return false, true
	}
	if !e.check(user, pass) {
		log.Infof("%v Unauthorized access for: %v", util.RemoteAddr(r), user)
		respondWithNotAuthorized(w)
		return false, false
	}
	log.Debugf("%v Authorized access for: %v", util.RemoteAddr(r), user)
	return true, true
}

// addRoute sets up a handler for a specific method+route.
func (e *electiond) addRoute(method string, route string, handler http.HandlerFunc) {
	e.router.StrictSlash(true).
		HandleFunc(v1.APIRoute+route, handler).
		Methods(method)
}

// setupRouter creates the router and sets up the v1 routes.
func (e *electiond) setupRouter() {
	e.router = mux.NewRouter()
	e.router.NotFoundHandler = closeBodyMiddleware(
		http.HandlerFunc(e.handleNotFound))

	// The first middleware added is the first executed.
	e.router.Use(closeBodyMiddleware)
	e.router.Use(maxBodySizeMiddleware)
	e.router.Use(loggingMiddleware)
	e.router.Use(recoverMiddleware)

	e.addRoute(http.MethodGet, v1.RouteVersion, e.handleVersion)
	e.addRoute(http.MethodPost, v1.RouteIdentity, e.handleIdentity)
	e.addRoute(http.MethodPost, v1.RoutePluginWrite, e.handlePluginWrite)
	e.addRoute(http.MethodPost, v1.RoutePluginRead, e.handlePluginRead)
	e.addRoute(http.MethodPost, v1.RoutePluginInventory,
		e.handlePluginInventory)
	e.addRoute(http.MethodGet, v1.RouteBlock, e.handleBlock)
	e.addRoute(http.MethodGet, v1.RouteBlockBest, e.handleBlockBest)
	e.addRoute(http.MethodGet, v1.RouteWebsocket, e.handleWebsocket)
}

// parsePluginSettings parses the plugin settings config. A plugin setting
// is in the format pluginID,key,value.
func parsePluginSettings(pluginSettings []string) (map[string][]backend.PluginSetting, error) {
	settings := make(map[string][]backend.PluginSetting)
	for _, v := range pluginSettings {
		s := strings.SplitN(v, ",", 3)
		if len(s) != 3 {
			return nil, fmt.Errorf("failed to parse plugin setting '%v'; "+
				"format should be 'pluginID,key,value'", v)
		}
		var (
			pluginID = s[0]
			key      = s[1]
			value    = s[2]
		)
		settings[pluginID] = append(settings[pluginID],
			backend.PluginSetting{
				Key:   key,
				Value: value,
			})
	}
	return settings, nil
}

// setupPlugins registers all configured plugins and then runs their setup
// in the configured order.
func (e *electiond) setupPlugins() error {
	settings, err := parsePluginSettings(e.cfg.PluginSettings)
	if err != nil {
		return err
	}
	for pluginID := range settings {
		var found bool
		for _, v := range e.cfg.Plugins {
			if v == pluginID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("plugin setting provided for plugin '%v' "+
				"that is not registered", pluginID)
		}
	}

	for _, v := range e.cfg.Plugins {
		log.Infof("Register plugin: %v", v)
		err := e.backend.PluginRegister(backend.Plugin{
			ID:       v,
			Settings: settings[v],
			Identity: e.identity,
		})
		if err != nil {
			return fmt.Errorf("PluginRegister %v: %v", v, err)
		}
	}
	for _, v := range e.cfg.Plugins {
		log.Infof("Setup plugin: %v", v)
		err := e.backend.PluginSetup(v)
		if err != nil {
			return fmt.Errorf("PluginSetup %v: %v", v, err)
		}
	}

	return nil
}

// newStore returns the key-value store selected by the config.
func newStore(cfg *config) (store.BlobKV, error) {
	log.Infof("Store: %v", cfg.StoreType)

	var (
		kv  store.BlobKV
		err error
	)
	switch cfg.StoreType {
	case storeTypeLevelDB:
		kv, err = localdb.New(cfg.HomeDir, cfg.DataDir)
	case storeTypeMySQL:
		kv, err = mysql.New(cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName)
	case storeTypePostgres:
		kv, err = postgres.New(cfg.PostgresDSN, cfg.DBPass)
	default:
		return nil, fmt.Errorf("invalid store type: %v", cfg.StoreType)
	}
	if err != nil {
		return nil, err
	}
	return kv, nil
}

// setupCron schedules the periodic jobs. The cron is not started.
func (e *electiond) setupCron() error {
	e.cron = cron.New()
	err := e.cron.AddFunc(e.cfg.CloseWatch, e.announceClosed)
	if err != nil {
		return fmt.Errorf("closewatch: %v", err)
	}
	err = e.cron.AddFunc(e.cfg.PingSpec, e.ws.Ping)
	if err != nil {
		return fmt.Errorf("pingspec: %v", err)
	}
	return nil
}

// loadIdentity loads the daemon identity, creating it if it does not exist.
func loadIdentity(filename string) (*identity.FullIdentity, error) {
	if !util.FileExists(filename) {
		log.Infof("Generating signing identity...")
		id, err := identity.New()
		if err != nil {
			return nil, err
		}
		err = id.Save(filename)
		if err != nil {
			return nil, err
		}
		log.Infof("Signing identity created...")
	}
	return identity.LoadFullIdentity(filename)
}

func _main() error {
	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration file: %v", err)
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	log.Infof("Version : %v", appVersion)
	log.Infof("Home dir: %v", cfg.HomeDir)

	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return err
	}

	// Generate the TLS cert and key file if both don't already exist.
	if !util.FileExists(cfg.HTTPSKey) && !util.FileExists(cfg.HTTPSCert) {
		log.Infof("Generating HTTPS keypair...")
		err := util.GenCertPair(appName, cfg.HTTPSCert, cfg.HTTPSKey,
			cfg.Listeners)
		if err != nil {
			return fmt.Errorf("unable to create https keypair: %v", err)
		}
		log.Infof("HTTPS keypair created...")
	}

	e := &electiond{
		cfg:       cfg,
		ws:        websockets.NewManager(defaultWSReadLimit),
		announced: make(map[uint64]bool),
	}
	e.identity, err = loadIdentity(cfg.Identity)
	if err != nil {
		return err
	}
	log.Infof("Public key: %v", e.identity.Public.String())

	// Setup backend
	kv, err := newStore(cfg)
	if err != nil {
		return err
	}
	b, err := ledgerbe.New(kv, time.Now)
	if err != nil {
		kv.Close()
		return err
	}
	e.backend = b
	defer e.backend.Close()

	err = e.setupPlugins()
	if err != nil {
		return err
	}
	e.backend.RegisterBlockNotifier(e.notifyBlock)
	e.setupRouter()

	// Elections that were closed before startup are not announced.
	err = e.loadClosed()
	if err != nil {
		return err
	}
	err = e.setupCron()
	if err != nil {
		return err
	}
	e.cron.Start()
	defer e.cron.Stop()

	// Setup OS signals
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bind to a port and pass our router in
	g, gctx := errgroup.WithContext(ctx)
	servers := make([]*http.Server, 0, len(cfg.Listeners))
	for _, listen := range cfg.Listeners {
		srv := &http.Server{
			Addr:              listen,
			Handler:           e.router,
			ReadHeaderTimeout: 30 * time.Second,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		}
		servers = append(servers, srv)
		g.Go(func() error {
			log.Infof("Listen: %v", srv.Addr)
			err := srv.ListenAndServeTLS(cfg.HTTPSCert, cfg.HTTPSKey)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("Terminating")
		sctx, cancel := context.WithTimeout(context.Background(),
			10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				log.Errorf("Shutdown %v: %v", srv.Addr, err)
			}
		}
		return nil
	})

	// Tell user we are ready to go.
	log.Infof("Start of day")

	err = g.Wait()
	if err != nil {
		log.Errorf("%v", err)
	}

	log.Infof("Exiting")

	return err
}

func main() {
	err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
