// Command recitectl drives the competition engine from the terminal:
// round administration, candidate registration, score entry, promotion
// and demotion, progression history and state archival.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"recitecore/internal/archive"
	"recitecore/internal/blob"
	"recitecore/internal/config"
	"recitecore/internal/core"
	"recitecore/pkg/domain"
)

var (
	headline = color.New(color.FgCyan, color.Bold)
	okText   = color.New(color.FgGreen)
	warnText = color.New(color.FgYellow)
	errText  = color.New(color.FgRed)
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:]); err != nil {
		errText.Fprintf(os.Stderr, "recitectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}
	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		usage()
		return nil
	}

	cfgPath := os.Getenv("RECITECORE_CONFIG")
	if cfgPath == "" {
		cfgPath = "recitecore.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch cmd {
	case "rounds":
		return cmdRounds(ctx, svc)
	case "round-create":
		return cmdRoundCreate(ctx, svc, rest)
	case "round-activate":
		return cmdRoundActive(ctx, svc, rest, true)
	case "round-deactivate":
		return cmdRoundActive(ctx, svc, rest, false)
	case "judge-create":
		return cmdJudgeCreate(ctx, svc, rest)
	case "category-create":
		return cmdCategoryCreate(ctx, svc, rest)
	case "register":
		return cmdRegister(ctx, svc, rest)
	case "standings":
		return cmdStandings(ctx, svc, rest)
	case "score":
		return cmdScore(ctx, svc, rest)
	case "promote":
		return cmdTransition(ctx, svc, rest, domain.StatusQualified)
	case "eliminate":
		return cmdTransition(ctx, svc, rest, domain.StatusEliminated)
	case "disqualify":
		return cmdTransition(ctx, svc, rest, domain.StatusDisqualified)
	case "reinstate":
		return cmdTransition(ctx, svc, rest, domain.StatusActive)
	case "history":
		return cmdHistory(ctx, svc, rest)
	case "archive":
		return cmdArchive(ctx, svc, cfg, rest)
	case "archives":
		return cmdArchives(ctx, svc, cfg)
	case "restore":
		return cmdRestore(ctx, svc, cfg, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	headline.Println("recitectl - recitation competition engine")
	fmt.Println(`
  rounds                                  list rounds
  round-create    -name -order            create a round
  round-activate  -id                     activate a round
  round-deactivate -id                    deactivate a round
  judge-create    -name [-email]          create a judge
  category-create -name [-desc]           create a category
  register        -name -category -round [-contact]
  standings       -round [-status] [-search]
  score           -candidate -judge -round -marks "a,r,f,v;... (5 questions)"
  promote         -candidate -actor       qualify into the next round
  eliminate       -candidate -actor
  disqualify      -candidate -actor
  reinstate       -candidate -actor
  history         -candidate              progression history
  archive         [-label]                snapshot state to the blob store
  archives                                list stored snapshots
  restore         -prefix                 restore a snapshot`)
}

func openService(cfg config.Config) (*core.Service, error) {
	engine := core.DefaultRulesEngine()
	var store domain.PersistentStore
	var err error
	switch cfg.Storage.Driver {
	case "memory":
		store = core.NewMemoryStore(engine)
	case "postgres":
		store, err = core.NewPostgresStore(cfg.Storage.PostgresDSN, engine)
	default:
		store, err = core.NewSQLiteStore(cfg.Storage.SQLitePath, engine)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	policy := domain.JudgingPolicy{
		MinJudges:              cfg.Judging.MinJudges,
		RequireCompleteScoring: cfg.Judging.RequireCompleteScoring,
	}
	return core.NewService(store, core.WithJudgingPolicy(policy)), nil
}

func openArchiver(ctx context.Context, svc *core.Service, cfg config.Config) (*archive.Archiver, error) {
	source, ok := svc.Store().(archive.StateSource)
	if !ok {
		return nil, fmt.Errorf("storage driver %s cannot export state", cfg.Storage.Driver)
	}
	var blobs blob.Store
	var err error
	switch cfg.Archive.Driver {
	case "memory":
		blobs = blob.NewMemory()
	case "s3":
		blobs, err = blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Region:    cfg.Archive.S3.Region,
			Endpoint:  cfg.Archive.S3.Endpoint,
			PathStyle: cfg.Archive.S3.PathStyle,
		})
	default:
		blobs, err = blob.NewFilesystem(cfg.Archive.FSRoot)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", cfg.Archive.Driver, err)
	}
	return archive.New(source, blobs, archive.WithRoot(cfg.Archive.Root)), nil
}

func cmdRounds(ctx context.Context, svc *core.Service) error {
	rounds := svc.ListRounds(ctx)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Order", "Active"})
	for _, r := range rounds {
		active := ""
		if r.IsActive {
			active = okText.Sprint("yes")
		}
		table.Append([]string{r.ID, r.Name, strconv.Itoa(r.OrderIndex), active})
	}
	table.Render()
	return nil
}

func cmdRoundCreate(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("round-create", flag.ExitOnError)
	name := fs.String("name", "", "round name")
	order := fs.Int("order", 0, "round order index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	round, _, err := svc.CreateRound(ctx, domain.Round{Name: *name, OrderIndex: *order})
	if err != nil {
		return err
	}
	okText.Printf("created round %s (%s, order %d)\n", round.ID, round.Name, round.OrderIndex)
	return nil
}

func cmdRoundActive(ctx context.Context, svc *core.Service, args []string, active bool) error {
	fs := flag.NewFlagSet("round-active", flag.ExitOnError)
	id := fs.String("id", "", "round id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	round, res, err := svc.SetRoundActive(ctx, *id, active)
	if err != nil {
		return err
	}
	for _, v := range res.Violations {
		warnText.Printf("warning: %s: %s\n", v.Rule, v.Message)
	}
	okText.Printf("round %s active=%v\n", round.Name, round.IsActive)
	return nil
}

func cmdJudgeCreate(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("judge-create", flag.ExitOnError)
	name := fs.String("name", "", "judge name")
	email := fs.String("email", "", "judge email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	judge, _, err := svc.CreateJudge(ctx, domain.Judge{Name: *name, Email: *email})
	if err != nil {
		return err
	}
	okText.Printf("created judge %s (%s)\n", judge.ID, judge.Name)
	return nil
}

func cmdCategoryCreate(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("category-create", flag.ExitOnError)
	name := fs.String("name", "", "category name")
	desc := fs.String("desc", "", "category description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, _, err := svc.CreateCategory(ctx, domain.Category{Name: *name, Description: *desc})
	if err != nil {
		return err
	}
	okText.Printf("created category %s (%s)\n", cat.ID, cat.Name)
	return nil
}

func cmdRegister(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "candidate name")
	contact := fs.String("contact", "", "candidate contact email")
	category := fs.String("category", "", "category id")
	round := fs.String("round", "", "round id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	candidate, _, err := svc.RegisterCandidate(ctx, domain.RegisterCandidateInput{
		Name:       *name,
		Contact:    *contact,
		CategoryID: *category,
		RoundID:    *round,
	})
	if err != nil {
		return err
	}
	okText.Printf("registered %s as %s (%s)\n", candidate.Name, candidate.RegistrationNumber, candidate.ID)
	return nil
}

func cmdStandings(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("standings", flag.ExitOnError)
	roundID := fs.String("round", "", "round id")
	status := fs.String("status", "", "filter by status")
	search := fs.String("search", "", "name or registration search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *roundID == "" {
		return fmt.Errorf("standings: -round is required")
	}
	round, err := svc.GetRound(ctx, *roundID)
	if err != nil {
		return err
	}

	filter := domain.NewCandidateFilter().WithRound(round.ID)
	if *status != "" {
		filter = filter.WithStatus(domain.CandidateStatus(*status))
	}
	if *search != "" {
		filter = filter.WithSearch(*search)
	}
	candidates, err := svc.ListCandidates(ctx, filter)
	if err != nil {
		return err
	}

	type row struct {
		candidate domain.Candidate
		summary   domain.ScoreSummary
	}
	rows := make([]row, 0, len(candidates))
	for _, c := range candidates {
		summary, err := svc.GetScoreSummary(ctx, c.ID, round.ID)
		if err != nil {
			return err
		}
		rows = append(rows, row{candidate: c, summary: summary})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].summary.TotalScore != rows[j].summary.TotalScore {
			return rows[i].summary.TotalScore > rows[j].summary.TotalScore
		}
		return rows[i].candidate.RegistrationNumber < rows[j].candidate.RegistrationNumber
	})

	headline.Printf("%s standings\n", round.Name)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Reg", "Name", "Status", "Judges", "Total", "Avg/Q", "Complete"})
	for _, r := range rows {
		complete := ""
		if r.summary.IsComplete {
			complete = okText.Sprint("yes")
		}
		table.Append([]string{
			r.candidate.RegistrationNumber,
			r.candidate.Name,
			statusText(r.candidate.Status),
			strconv.Itoa(r.summary.JudgesCount),
			fmt.Sprintf("%.2f", r.summary.TotalScore),
			fmt.Sprintf("%.2f", r.summary.AveragePerQuestion),
			complete,
		})
	}
	table.Render()
	return nil
}

func statusText(s domain.CandidateStatus) string {
	switch s {
	case domain.StatusActive:
		return okText.Sprint(string(s))
	case domain.StatusQualified:
		return headline.Sprint(string(s))
	case domain.StatusEliminated:
		return warnText.Sprint(string(s))
	case domain.StatusDisqualified:
		return errText.Sprint(string(s))
	}
	return string(s)
}

func cmdScore(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	candidate := fs.String("candidate", "", "candidate id")
	judge := fs.String("judge", "", "judge id")
	round := fs.String("round", "", "round id")
	marks := fs.String("marks", "", `five "accuracy,rules,fluency,voice" quads separated by ";"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	questions, err := parseMarks(*marks)
	if err != nil {
		return err
	}
	summary, _, err := svc.SubmitScore(ctx, domain.SubmitScoreInput{
		CandidateID: *candidate,
		JudgeID:     *judge,
		RoundID:     *round,
		Questions:   questions,
	})
	if err != nil {
		return err
	}
	okText.Printf("recorded sheet: %d judge(s), total %.2f, avg/question %.2f\n",
		summary.JudgesCount, summary.TotalScore, summary.AveragePerQuestion)
	if !summary.IsComplete {
		warnText.Println("scoring still incomplete for this candidate")
	}
	return nil
}

func parseMarks(s string) ([domain.QuestionsPerRound]domain.QuestionMarks, error) {
	var questions [domain.QuestionsPerRound]domain.QuestionMarks
	quads := strings.Split(s, ";")
	if len(quads) != domain.QuestionsPerRound {
		return questions, fmt.Errorf("expected %d questions, got %d", domain.QuestionsPerRound, len(quads))
	}
	for i, quad := range quads {
		fields := strings.Split(strings.TrimSpace(quad), ",")
		if len(fields) != 4 {
			return questions, fmt.Errorf("question %d: expected 4 marks, got %d", i+1, len(fields))
		}
		vals := make([]int, 4)
		for j, f := range fields {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return questions, fmt.Errorf("question %d: %w", i+1, err)
			}
			vals[j] = n
		}
		questions[i] = domain.QuestionMarks{Accuracy: vals[0], Rules: vals[1], Fluency: vals[2], Voice: vals[3]}
	}
	return questions, nil
}

func cmdTransition(ctx context.Context, svc *core.Service, args []string, status domain.CandidateStatus) error {
	fs := flag.NewFlagSet("transition", flag.ExitOnError)
	candidate := fs.String("candidate", "", "candidate id")
	actor := fs.String("actor", "", "acting judge or admin id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, _, err := svc.TransitionStatus(ctx, *candidate, status, *actor)
	if err != nil {
		return err
	}
	switch {
	case result.NoOp:
		warnText.Printf("candidate %s already %s\n", result.Candidate.RegistrationNumber, status)
	case result.Clone != nil:
		okText.Printf("%s qualified into the next round as %s\n",
			result.Candidate.RegistrationNumber, result.Clone.RegistrationNumber)
	case result.ClonesDeleted > 0:
		okText.Printf("%s set to %s, %d later-round record(s) rolled back\n",
			result.Candidate.RegistrationNumber, status, result.ClonesDeleted)
	default:
		okText.Printf("%s set to %s\n", result.Candidate.RegistrationNumber, status)
	}
	return nil
}

func cmdHistory(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	candidate := fs.String("candidate", "", "candidate id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	records, err := svc.ProgressionHistory(ctx, *candidate)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"When", "Status", "From", "To", "By", "Notes"})
	for _, rec := range records {
		table.Append([]string{
			rec.QualifiedAt.Format("2006-01-02 15:04"),
			string(rec.Status),
			rec.FromRoundID,
			rec.ToRoundID,
			rec.QualifiedBy,
			rec.Notes,
		})
	}
	table.Render()
	return nil
}

func cmdArchive(ctx context.Context, svc *core.Service, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	label := fs.String("label", "snapshot", "archive label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	arch, err := openArchiver(ctx, svc, cfg)
	if err != nil {
		return err
	}
	manifest, err := arch.Archive(ctx, *label)
	if err != nil {
		return err
	}
	okText.Printf("archived to %s (%d candidates, %d scores)\n",
		manifest.Prefix, manifest.Counts["candidates"], manifest.Counts["scores"])
	return nil
}

func cmdArchives(ctx context.Context, svc *core.Service, cfg config.Config) error {
	arch, err := openArchiver(ctx, svc, cfg)
	if err != nil {
		return err
	}
	manifests, err := arch.List(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Created", "Label", "Prefix", "Candidates", "Scores"})
	for _, m := range manifests {
		table.Append([]string{
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Label,
			m.Prefix,
			strconv.Itoa(m.Counts["candidates"]),
			strconv.Itoa(m.Counts["scores"]),
		})
	}
	table.Render()
	return nil
}

func cmdRestore(ctx context.Context, svc *core.Service, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	prefix := fs.String("prefix", "", "archive prefix to restore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *prefix == "" {
		return fmt.Errorf("restore: -prefix is required")
	}
	arch, err := openArchiver(ctx, svc, cfg)
	if err != nil {
		return err
	}
	manifest, err := arch.Restore(ctx, *prefix)
	if err != nil {
		return err
	}
	okText.Printf("restored %s (created %s)\n", manifest.Label, manifest.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}
