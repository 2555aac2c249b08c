package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/l3aro/pycritic/internal/log"
	"github.com/l3aro/pycritic/internal/scanner"
	"github.com/l3aro/pycritic/pkg/report"
)

// debounceWindow batches the burst of filesystem events an editor save
// produces into one re-analysis.
const debounceWindow = 300 * time.Millisecond

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-analyze Python files as they change",
	Long: `Watches a directory tree and re-runs the analysis on every Python
file that changes, printing fresh findings immediately. Useful during an
assignment: keep it running in a terminal and fix findings as they appear.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return runWatch(cmd, dir)
	},
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "Output format: text or json")
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}
	// The cache would serve stale reports for files being edited, and the
	// whole point here is freshness.
	cfg.CacheEnabled = false

	eng, _, _ := buildEngine(cfg)
	renderer, err := report.New(cfg.Output, cfg.Output != "json")
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	logger.Info("watching for changes", "dir", dir)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping watch")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name); err != nil {
						logger.Warn("cannot watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isPythonPath(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			paths := drainPending(pending)
			pending = make(map[string]struct{})

			reports, err := eng.AnalyzeFiles(ctx, paths)
			if err != nil {
				logger.Error("analysis failed", "error", err)
				continue
			}
			if err := renderer.Render(os.Stdout, reports); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// drainPending turns the pending event set into a sorted path list so a
// batch of changed files renders in the same order every time.
func drainPending(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// watchTree registers dir and every non-excluded subdirectory with the
// watcher. fsnotify watches are not recursive on their own.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	opts := scanner.DefaultOptions()
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != dir && (strings.HasPrefix(name, ".") || excluded(name, opts.DefaultExcludes)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func excluded(name string, excludes []string) bool {
	for _, e := range excludes {
		if strings.EqualFold(name, e) {
			return true
		}
	}
	return false
}

func isPythonPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	}
	return false
}
