// cmd/cv-analyzer/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cv-analyzer-client/internal/analysis"
	"cv-analyzer-client/internal/api"
	"cv-analyzer-client/internal/common/config"
	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/common/observability"
	"cv-analyzer-client/internal/extract"
	"cv-analyzer-client/internal/models"
	"cv-analyzer-client/internal/store"
)

const usage = `cv-analyzer - CV matching client

Usage:
  cv-analyzer health                          check backend availability
  cv-analyzer analyze --jd-text "..." FILE... run the full matching workflow
  cv-analyzer analyze --jd-file jd.pdf FILE...
  cv-analyzer upload FILE...                  upload CVs without analyzing
  cv-analyzer jd FILE                         upload a job description file
  cv-analyzer list cvs|jds                    list stored documents
  cv-analyzer get cv|jd ID                    show one stored document
  cv-analyzer delete cv|jd ID                 delete a stored document
  cv-analyzer search QUERY                    semantic search over stored CVs
  cv-analyzer session show|clear              inspect or drop the saved session
`

type app struct {
	cfg     *config.Config
	log     logger.Logger
	zapLog  *zap.Logger
	backend api.Backend
	store   *store.Store
	session *store.SessionStore
	obs     *observability.Observability
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg:     cfg,
		log:     log,
		zapLog:  zapLog,
		backend: api.NewClient(cfg.API, log),
		store:   store.New(log),
		obs:     observability.New(cfg.App.Name),
	}
	defer a.obs.Shutdown()

	if cfg.Session.Persist {
		a.session = store.NewSessionStore(cfg.Session, log)
		defer a.session.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.restoreSession(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		zapLog.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "health":
		return a.cmdHealth(ctx)
	case "analyze":
		return a.cmdAnalyze(ctx, args)
	case "upload":
		return a.cmdUpload(ctx, args)
	case "jd":
		return a.cmdUploadJD(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "get":
		return a.cmdGet(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "search":
		return a.cmdSearch(ctx, args)
	case "session":
		return a.cmdSession(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdHealth(ctx context.Context) error {
	status, err := a.backend.CheckHealth(ctx)
	if err != nil {
		return err
	}
	if !status.Healthy() {
		return fmt.Errorf("backend reported status %q", status.Status)
	}
	fmt.Printf("backend healthy (%s)\n", a.cfg.API.BaseURL)
	return nil
}

func (a *app) cmdAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	jdText := fs.String("jd-text", "", "job description text")
	jdFile := fs.String("jd-file", "", "job description file (.pdf, .docx, .txt, .md)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("analyze requires at least one CV file")
	}

	for _, path := range fs.Args() {
		f, err := extract.NewFile(path)
		if err != nil {
			return err
		}
		a.store.AddUploadedFile(f)
	}
	if *jdText != "" {
		a.store.SetJobDescriptionText(*jdText)
	}
	if *jdFile != "" {
		f, err := extract.NewFile(*jdFile)
		if err != nil {
			return err
		}
		a.store.SetJobDescriptionFile(&f)
	}

	if a.cfg.Metrics.Enabled {
		a.serveMetrics()
	}

	progressDone := a.watchProgress(ctx)

	runner := analysis.NewRunner(a.backend, a.store, a.cfg.Analysis, a.cfg.Upload, a.log, a.obs)
	runErr := runner.Run(ctx)
	<-progressDone

	for _, n := range a.store.Notifications() {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
	if runErr != nil {
		return runErr
	}

	a.printResults(a.store.MatchResults())
	a.saveSession(ctx)
	return nil
}

// watchProgress renders step and progress changes until the store goes
// quiet after the run finishes.
func (a *app) watchProgress(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		lastStep := models.AnalysisStep("")
		lastProgress := -1
		for {
			select {
			case <-a.store.Watch():
				step := a.store.AnalysisStep()
				progress := a.store.AnalysisProgress()
				if step != lastStep && step != models.StepIdle {
					fmt.Printf("%s\n", step)
					lastStep = step
				}
				if progress != lastProgress {
					fmt.Printf("  %d%%\n", progress)
					lastProgress = progress
				}
				if !a.store.IsAnalyzing() && lastProgress >= 0 {
					return
				}
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Minute):
				return
			}
		}
	}()
	return done
}

func (a *app) printResults(results []models.MatchResult) {
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	fmt.Printf("\n%d candidates ranked:\n", len(results))
	for i, r := range results {
		fmt.Printf("%2d. %-40s %3.0f%%\n", i+1, r.CVFilename, r.Score)
		if r.OverallAssessment != "" {
			fmt.Printf("    %s\n", r.OverallAssessment)
		}
		for _, s := range r.Strengths {
			fmt.Printf("    + %s\n", s)
		}
		for _, g := range r.Gaps {
			fmt.Printf("    - %s\n", g)
		}
	}
}

func (a *app) cmdUpload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("upload requires at least one file")
	}
	for _, path := range args {
		f, err := extract.NewFile(path)
		if err != nil {
			return err
		}
		if err := extract.ValidateFile(f, a.cfg.Upload.MaxFileSize, a.cfg.Upload.AllowedExtensions); err != nil {
			return err
		}
		content, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		record, upErr := a.backend.UploadCandidate(ctx, f.Name, content)
		content.Close()
		if upErr != nil {
			return upErr
		}
		a.store.AddCandidate(record)
		fmt.Printf("uploaded %s as %s\n", f.Name, record.ID)
	}
	a.saveSession(ctx)
	return nil
}

func (a *app) cmdUploadJD(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: jd FILE")
	}
	f, err := extract.NewFile(args[0])
	if err != nil {
		return err
	}
	if err := extract.ValidateFile(f, a.cfg.Upload.MaxFileSize, a.cfg.Upload.AllowedExtensions); err != nil {
		return err
	}
	content, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer content.Close()
	jd, err := a.backend.UploadJobDescription(ctx, f.Name, content)
	if err != nil {
		return err
	}
	a.store.AddJobDescription(jd)
	fmt.Printf("uploaded %s as %s\n", f.Name, jd.ID)
	a.saveSession(ctx)
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list cvs|jds")
	}
	switch args[0] {
	case "cvs":
		cvs, err := a.backend.ListCandidates(ctx)
		if err != nil {
			return err
		}
		a.store.SetCandidates(cvs)
		for _, cv := range cvs {
			fmt.Printf("%s  %-40s %6d words  %s\n", cv.ID, cv.Filename, cv.WordsCount, cv.UploadDate)
		}
		fmt.Printf("%d CVs stored\n", len(cvs))
	case "jds":
		jds, err := a.backend.ListJobDescriptions(ctx)
		if err != nil {
			return err
		}
		a.store.SetJobDescriptions(jds)
		for _, jd := range jds {
			fmt.Printf("%s  %-40s %s\n", jd.ID, jd.Title, jd.CreatedDate)
		}
		fmt.Printf("%d job descriptions stored\n", len(jds))
	default:
		return fmt.Errorf("usage: list cvs|jds")
	}
	a.saveSession(ctx)
	return nil
}

func (a *app) cmdGet(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: get cv|jd ID")
	}
	var doc interface{}
	var err error
	switch args[0] {
	case "cv":
		doc, err = a.backend.GetCandidate(ctx, args[1])
	case "jd":
		doc, err = a.backend.GetJobDescription(ctx, args[1])
	default:
		return fmt.Errorf("usage: get cv|jd ID")
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: delete cv|jd ID")
	}
	switch args[0] {
	case "cv":
		if err := a.backend.DeleteCandidate(ctx, args[1]); err != nil {
			return err
		}
		a.store.RemoveCandidate(args[1])
	case "jd":
		if err := a.backend.DeleteJobDescription(ctx, args[1]); err != nil {
			return err
		}
		a.store.RemoveJobDescription(args[1])
	default:
		return fmt.Errorf("usage: delete cv|jd ID")
	}
	fmt.Printf("deleted %s %s\n", args[0], args[1])
	a.saveSession(ctx)
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: search QUERY")
	}
	results, err := a.backend.SearchCandidates(ctx, query, *limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%.3f  %s  %s\n", r.Score, r.ID, r.Filename)
	}
	fmt.Printf("%d results for %q\n", len(results), query)
	return nil
}

func (a *app) cmdSession(ctx context.Context, args []string) error {
	if a.session == nil {
		return fmt.Errorf("session persistence is disabled (set session.persist: true)")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: session show|clear")
	}
	switch args[0] {
	case "show":
		snap, ok, err := a.session.Load(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no saved session")
			return nil
		}
		fmt.Printf("saved %s: %d CVs, %d JDs, %d match results, tab %q\n",
			snap.SavedAt.Format(time.RFC3339),
			len(snap.Candidates), len(snap.JobDescriptions), len(snap.MatchResults), snap.CurrentTab)
	case "clear":
		if err := a.session.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("session cleared")
	default:
		return fmt.Errorf("usage: session show|clear")
	}
	return nil
}

func (a *app) restoreSession(ctx context.Context) {
	if a.session == nil {
		return
	}
	snap, ok, err := a.session.Load(ctx)
	if err != nil {
		a.log.Warn("session restore failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if ok {
		a.store.Restore(snap)
	}
}

func (a *app) saveSession(ctx context.Context) {
	if a.session == nil {
		return
	}
	if err := a.session.Save(ctx, a.store.Snapshot()); err != nil {
		a.log.Warn("session save failed", map[string]interface{}{"error": err.Error()})
	}
}

func (a *app) serveMetrics() {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		a.zapLog.Info("Metrics server listening", zap.String("address", a.cfg.Metrics.Address))
		if err := http.ListenAndServe(a.cfg.Metrics.Address, nil); err != nil {
			a.zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()
}
