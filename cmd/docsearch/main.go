// Copyright 2025 The docsearch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the document search server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

docsearch ranks recently used documents against a short typed query. Every
path is scanned with an approximate substring matcher (bitap, substitutions
only), weak matches are dropped, and each survivor gets a display snippet
centered on the query. It can operate as a MessagePack IPC server for
launchers and editors, or as a CLI application for testing and debugging.

# Usage

Start the server with default settings:

	docsearch

Add a recent list and enable debug mode:

	docsearch -list ~/.local/share/recent.txt -d

Run in CLI mode for interactive testing:

	docsearch -c -k 1 -limit 5

Run a single query and print the matching paths:

	docsearch -q budget

# Configuration

Runtime configuration is managed through a TOML file with search, sources
and CLI sections:

	[search]
	max_edits = 2
	min_offset = 5
	rank = "offset"

	[sources]
	lists = ["recent.txt"]
	exclude = ["~$*"]
	watch = true

The config file is automatically created with defaults if it doesn't exist.
With sources.watch enabled the lists are re-read whenever they change.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, see package
server for the message types.

	{"id": "req1", "q": "budget", "k": 2}
	{"id": "req1", "r": [{"p": "...", "t": "budget", "s": "...al budget.ods", "o": 26, "sc": 26, "r": 1}], "c": 1, "t": 85}

# Command Line Flags

	-config string
	    Path to a config file (default [UserConfigDir]/docsearch/config.toml)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-q string
	    Run one query, print the ranked paths and exit
	-k int
	    Edit budget (default from config)
	-limit int
	    Number of results to return (default from config)
	-list string
	    Extra recent list files, comma separated
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bastiangx/docsearch/internal/cli"
	"github.com/bastiangx/docsearch/internal/logger"
	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/bastiangx/docsearch/pkg/config"
	"github.com/bastiangx/docsearch/pkg/recent"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/bastiangx/docsearch/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "docsearch"
	gh      = "https://github.com/bastiangx/docsearch"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cleanup()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow between config, sources and the front ends.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to a config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	query := flag.String("q", "", "Run a single query and exit")
	budget := flag.Int("k", -1, "Edit budget, substitutions allowed per match (default from config)")
	limit := flag.Int("limit", 0, "Number of results to return (default from config)")
	extraLists := flag.String("list", "", "Extra recent list files, comma separated")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	if *budget < 0 {
		*budget = appConfig.Search.MaxEdits
	}
	if *limit < 1 {
		*limit = appConfig.CLI.DefaultLimit
	}

	lists := appConfig.ListPaths(configPath)
	for _, l := range strings.Split(*extraLists, ",") {
		if l = strings.TrimSpace(l); l != "" {
			lists = append(lists, utils.ResolvePath(l, ""))
		}
	}
	if len(lists) == 0 {
		log.Warn("No recent lists configured, use -list or sources.lists in the config")
	}

	store := recent.NewStore(appConfig.Sources.Exclude)
	if err := store.Reload(lists); err != nil {
		log.Warnf("Some recent lists could not be read: %v", err)
	}
	log.Debugf("Loaded %d recent documents from %d lists", store.Len(), len(lists))

	engine := search.NewEngine(appConfig.SearchOptions())

	var index *search.Index
	if appConfig.Search.IndexSearch {
		index = search.NewIndex()
		index.Rebuild(store.Candidates())
		log.Debug("Word index built", "stats", index.Stats())
	}

	if *query != "" {
		os.Exit(runQuery(engine, store, *query, *budget, *limit, appConfig.Search.ShowQuery))
	}

	var watcher *recent.Watcher
	if appConfig.Sources.Watch && len(lists) > 0 {
		watcher, err = recent.Watch(store, lists, func() {
			if index != nil {
				index.Rebuild(store.Candidates())
			}
		})
		if err != nil {
			log.Warnf("Not watching recent lists: %v", err)
		}
	}
	stopWatcher := func() {
		if watcher != nil {
			watcher.Stop()
		}
	}
	sigHandler(stopWatcher)
	defer stopWatcher()

	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "k", *budget, "limit", *limit, "documents", store.Len())

		inputHandler := cli.NewInputHandler(engine, store, index, *budget, *limit, appConfig.Search.ShowQuery)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, store, index, server.Options{
		MaxEdits:     appConfig.Search.MaxEdits,
		DefaultLimit: appConfig.CLI.DefaultLimit,
		Lists:        lists,
	}, os.Stdin, os.Stdout)

	showStartupInfo(store.Len(), len(lists))

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// runQuery prints the ranked paths on stdout, one per line, and returns the exit code.
func runQuery(engine *search.Engine, store *recent.Store, query string, k, limit int, showQuery bool) int {
	matches, err := engine.Search(store.Candidates(), query, k)
	if err != nil {
		log.Errorf("Query rejected: %v", err)
		return 2
	}
	if len(matches) == 0 {
		return 1
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	for _, m := range matches {
		if showQuery {
			fmt.Printf("%s\t%s\n", m.Display(), m.Text)
			continue
		}
		fmt.Println(m.Text)
	}
	return 0
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ docsearch ] Finds your recent documents from a few typed letters")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
// stdout carries IPC frames, so everything goes to stderr.
func showStartupInfo(documents, lists int) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " docsearch ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("documents: %d from %d lists", documents, lists)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
