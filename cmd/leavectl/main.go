package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/nkulkarni/school-leave/internal/application/service"
	"github.com/nkulkarni/school-leave/internal/config"
	"github.com/nkulkarni/school-leave/internal/domain/entity"
	"github.com/nkulkarni/school-leave/internal/infrastructure/docstore"
	"github.com/nkulkarni/school-leave/internal/infrastructure/notify"
	"github.com/nkulkarni/school-leave/pkg/database"
	"github.com/nkulkarni/school-leave/pkg/utils"
)

const usage = `leavectl - school leave-request workflow tool

Usage:
  leavectl [-config path] -actor ID -name NAME -role ROLE <command> [flags]

Commands:
  submit-personal  -from DATE -to DATE -reason TEXT
  submit-student   -student-id ID -student-name NAME -class NAME -from DATE -to DATE -reason TEXT
  forward          -id ID [-remark TEXT]
  reject-teacher   -id ID -remark TEXT
  approve          -id ID [-remark TEXT]
  reject-admin     -id ID [-remark TEXT]
  admin-inbox
  teacher-inbox
  history          [-actor-id ID]
  watch            -view admin|teacher
`

// sugarLogger adapts a zap.SugaredLogger to the service logger interface
type sugarLogger struct {
	s *zap.SugaredLogger
}

func (l sugarLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l sugarLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func main() {
	_ = gotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	actorID := flag.String("actor", "", "acting user id")
	actorName := flag.String("name", "", "acting user display name")
	role := flag.String("role", "", "acting role: teacher, student or admin")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	store := docstore.NewSQLiteStore(db, logger, docstore.WithPollInterval(cfg.Store.PollInterval))
	sink := notify.NewLoggerSink(logger)
	engine := service.NewLeaveWorkflow(store, sink, sugarLogger{logger.Sugar()},
		service.WithCollection(cfg.Store.Collection))

	sess := service.Session{
		ActorID:   *actorID,
		ActorName: *actorName,
		Role:      entity.Role(*role),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, engine, sess, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, engine service.LeaveWorkflow, sess service.Session, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "submit-personal":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		from := fs.String("from", "", "start date YYYY-MM-DD")
		to := fs.String("to", "", "end date YYYY-MM-DD")
		reason := fs.String("reason", "", "leave reason")
		fs.Parse(rest)

		req, err := engine.SubmitPersonalLeave(ctx, sess, service.LeaveInput{
			StartDate: *from, EndDate: *to, Reason: *reason,
		})
		if err != nil {
			return err
		}
		fmt.Printf("submitted %s (%s)\n", req.ID, req.Status)
		return nil

	case "submit-student":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		studentID := fs.String("student-id", "", "student id (teacher intake)")
		studentName := fs.String("student-name", "", "student name (teacher intake)")
		class := fs.String("class", "", "class name")
		from := fs.String("from", "", "start date YYYY-MM-DD")
		to := fs.String("to", "", "end date YYYY-MM-DD")
		reason := fs.String("reason", "", "leave reason")
		fs.Parse(rest)

		req, err := engine.SubmitStudentLeave(ctx, sess, service.StudentLeaveInput{
			LeaveInput:  service.LeaveInput{StartDate: *from, EndDate: *to, Reason: *reason},
			StudentID:   *studentID,
			StudentName: *studentName,
			ClassName:   *class,
		})
		if err != nil {
			return err
		}
		fmt.Printf("submitted %s (%s)\n", req.ID, req.Status)
		return nil

	case "forward", "reject-teacher", "approve", "reject-admin":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		id := fs.String("id", "", "request id")
		remark := fs.String("remark", "", "reviewer remark")
		fs.Parse(rest)

		var err error
		switch command {
		case "forward":
			err = engine.Forward(ctx, sess, *id, *remark)
		case "reject-teacher":
			err = engine.RejectByTeacher(ctx, sess, *id, *remark)
		case "approve":
			err = engine.Approve(ctx, sess, *id, *remark)
		case "reject-admin":
			err = engine.RejectByAdmin(ctx, sess, *id, *remark)
		}
		if err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "admin-inbox":
		reqs, err := engine.AdminInbox(ctx)
		if err != nil {
			return err
		}
		printRequests(reqs)
		return nil

	case "teacher-inbox":
		reqs, err := engine.TeacherInbox(ctx)
		if err != nil {
			return err
		}
		printRequests(reqs)
		return nil

	case "history":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		actor := fs.String("actor-id", sess.ActorID, "requester id")
		fs.Parse(rest)

		reqs, err := engine.ActorHistory(ctx, *actor)
		if err != nil {
			return err
		}
		printRequests(reqs)
		return nil

	case "watch":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		view := fs.String("view", "admin", "inbox to watch: admin or teacher")
		fs.Parse(rest)

		var feed <-chan []entity.Request
		var err error
		switch *view {
		case "admin":
			feed, err = engine.WatchAdminInbox(ctx)
		case "teacher":
			feed, err = engine.WatchTeacherInbox(ctx)
		default:
			return fmt.Errorf("unknown view %q", *view)
		}
		if err != nil {
			return err
		}

		for reqs := range feed {
			fmt.Printf("--- %d pending\n", len(reqs))
			printRequests(reqs)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printRequests(reqs []entity.Request) {
	for _, req := range reqs {
		core := req.Core()
		fmt.Printf("%s  %-8s  %-15s  %s..%s  %s  %q\n",
			core.ID,
			req.RequesterRole(),
			core.RequesterName,
			core.StartDate,
			core.EndDate,
			core.Status,
			core.Reason,
		)
	}
}
