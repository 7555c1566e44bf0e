// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/robfig/cron"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
	elplugin "github.com/tokenvote/tokenvote/electiond/plugins/election"
	"github.com/tokenvote/tokenvote/util"
)

const (
	appName    = "electiond"
	appVersion = "1.0.0"

	defaultConfigFilename   = "electiond.conf"
	defaultDataDirname      = "data"
	defaultLogLevel         = "info"
	defaultLogDirname       = "logs"
	defaultLogFilename      = "electiond.log"
	defaultIdentityFilename = "identity.json"

	defaultPort = "49480"

	// Store types
	storeTypeLevelDB  = "leveldb"
	storeTypeMySQL    = "mysql"
	storeTypePostgres = "postgres"
	defaultStoreType  = storeTypeLevelDB

	defaultDBHost = "localhost:3306"
	defaultDBUser = "electiond"
	defaultDBName = "electiond"

	// Cron specs of the periodic jobs
	defaultCloseWatch = "@every 10s"
	defaultPingSpec   = "@every 30s"

	// defaultWSReadLimit is the maximum number of bytes that a websocket
	// client may send in a single message.
	defaultWSReadLimit = 4096
)

var (
	defaultHomeDir       = util.AppDataDir(appName)
	defaultConfigFile    = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir       = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultHTTPSKeyFile  = filepath.Join(defaultHomeDir, "https.key")
	defaultHTTPSCertFile = filepath.Join(defaultHomeDir, "https.cert")
	defaultLogDir        = filepath.Join(defaultHomeDir, defaultLogDirname)
	defaultIdentityFile  = filepath.Join(defaultHomeDir, defaultIdentityFilename)

	// defaultPlugins are registered when no plugins are configured. The
	// election plugin depends on the token plugin.
	defaultPlugins = []string{tkplugin.PluginID, elplugin.PluginID}
)

// config defines the configuration options for electiond.
//
// See loadConfig for details on the configuration load process.
type config struct {
	HomeDir     string   `short:"A" long:"appdata" description:"Path to application home directory"`
	ShowVersion bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string   `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string   `long:"logdir" description:"Directory to log output."`
	DebugLevel  string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Listeners   []string `long:"listen" description:"Add an interface/port to listen for connections (default all interfaces port: 49480)"`
	HTTPSCert   string   `long:"httpscert" description:"File containing the https certificate file"`
	HTTPSKey    string   `long:"httpskey" description:"File containing the https certificate key"`
	RPCUser     string   `long:"rpcuser" description:"RPC user name for privileged commands"`
	RPCPass     string   `long:"rpcpass" description:"RPC password for privileged commands"`
	Identity    string   `long:"identity" description:"File containing the electiond identity file"`

	// Store settings
	StoreType   string `long:"storetype" description:"Key-value store of the ledger {leveldb, mysql, postgres}"`
	DBHost      string `long:"dbhost" description:"MySQL host (host:port)"`
	DBUser      string `long:"dbuser" description:"MySQL user"`
	DBName      string `long:"dbname" description:"MySQL database name"`
	DBPass      string `long:"dbpass" description:"Database password. Also used to derive the encryption key of the mysql and postgres stores"`
	PostgresDSN string `long:"postgresdsn" description:"Postgres connection string, e.g. postgres://electiond@localhost:5432/electiond"`

	// Plugin settings
	Plugins        []string `long:"plugin" description:"Plugins to register"`
	PluginSettings []string `long:"pluginsetting" description:"Plugin setting in the format pluginID,key,value"`

	// Periodic jobs
	CloseWatch string `long:"closewatch" description:"Cron spec of the job that announces closed elections"`
	PingSpec   string `long:"pingspec" description:"Cron spec of the websocket ping job"`
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}
		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while
	// detecting issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// removeDuplicateAddresses returns a new slice with all duplicate entries in
// addrs removed.
func removeDuplicateAddresses(addrs []string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, val := range addrs {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// normalizeAddresses returns a new slice with all the passed addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	for i, addr := range addrs {
		addrs[i] = util.NormalizeAddress(addr, defaultPort)
	}
	return removeDuplicateAddresses(addrs)
}

// validateStore verifies that the settings required by the selected store
// are present.
func validateStore(cfg *config) error {
	switch cfg.StoreType {
	case storeTypeLevelDB:
	case storeTypeMySQL:
		if cfg.DBPass == "" {
			return fmt.Errorf("dbpass is required for the %v store",
				cfg.StoreType)
		}
	case storeTypePostgres:
		if cfg.PostgresDSN == "" || cfg.DBPass == "" {
			return fmt.Errorf("postgresdsn and dbpass are required for "+
				"the %v store", cfg.StoreType)
		}
	default:
		return fmt.Errorf("invalid store type '%v'", cfg.StoreType)
	}
	return nil
}

// validateCronSpecs verifies that the periodic job specs can be parsed.
func validateCronSpecs(cfg *config) error {
	if _, err := cron.Parse(cfg.CloseWatch); err != nil {
		return fmt.Errorf("invalid closewatch '%v': %v", cfg.CloseWatch, err)
	}
	if _, err := cron.Parse(cfg.PingSpec); err != nil {
		return fmt.Errorf("invalid pingspec '%v': %v", cfg.PingSpec, err)
	}
	return nil
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the daemon functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	cfg := config{
		HomeDir:    defaultHomeDir,
		ConfigFile: defaultConfigFile,
		DebugLevel: defaultLogLevel,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		HTTPSKey:   defaultHTTPSKeyFile,
		HTTPSCert:  defaultHTTPSCertFile,
		StoreType:  defaultStoreType,
		DBHost:     defaultDBHost,
		DBUser:     defaultDBUser,
		DBName:     defaultDBName,
		CloseWatch: defaultCloseWatch,
		PingSpec:   defaultPingSpec,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory if specified. Since the home directory
	// is updated, other variables need to be updated to reflect the new
	// changes.
	if preCfg.HomeDir != defaultHomeDir {
		cfg.HomeDir, _ = filepath.Abs(util.CleanAndExpandPath(preCfg.HomeDir))

		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
		} else {
			cfg.DataDir = preCfg.DataDir
		}
		if preCfg.HTTPSKey == defaultHTTPSKeyFile {
			cfg.HTTPSKey = filepath.Join(cfg.HomeDir, "https.key")
		} else {
			cfg.HTTPSKey = preCfg.HTTPSKey
		}
		if preCfg.HTTPSCert == defaultHTTPSCertFile {
			cfg.HTTPSCert = filepath.Join(cfg.HomeDir, "https.cert")
		} else {
			cfg.HTTPSCert = preCfg.HTTPSCert
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		} else {
			cfg.LogDir = preCfg.LogDir
		}
		if preCfg.Identity == "" {
			cfg.Identity = filepath.Join(cfg.HomeDir,
				defaultIdentityFilename)
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err = os.MkdirAll(cfg.HomeDir, 0700)
	if err != nil {
		str := "%s: failed to create home directory: %v"
		err := fmt.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	cfg.DataDir = util.CleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = util.CleanAndExpandPath(cfg.LogDir)
	cfg.HTTPSKey = util.CleanAndExpandPath(cfg.HTTPSKey)
	cfg.HTTPSCert = util.CleanAndExpandPath(cfg.HTTPSCert)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After log rotation has been initialized,
	// the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Add the default listener if none were specified.
	if len(cfg.Listeners) == 0 {
		cfg.Listeners = []string{
			net.JoinHostPort("", defaultPort),
		}
	}
	cfg.Listeners = normalizeAddresses(cfg.Listeners, defaultPort)

	if err := validateStore(&cfg); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if err := validateCronSpecs(&cfg); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	if len(cfg.Plugins) == 0 {
		cfg.Plugins = defaultPlugins
	}

	if cfg.Identity == "" {
		cfg.Identity = defaultIdentityFile
	}
	cfg.Identity = util.CleanAndExpandPath(cfg.Identity)

	// Set random username and password when not specified
	if cfg.RPCUser == "" {
		name, err := util.Random(32)
		if err != nil {
			return nil, nil, err
		}
		cfg.RPCUser = base64.StdEncoding.EncodeToString(name)
		log.Warnf("RPC user name not set, using random value")
	}
	if cfg.RPCPass == "" {
		pass, err := util.Random(32)
		if err != nil {
			return nil, nil, err
		}
		cfg.RPCPass = base64.StdEncoding.EncodeToString(pass)
		log.Warnf("RPC password not set, using random value")
	}

	// Warn about missing config file only after all other configuration
	// is done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
