package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/classboard/backoffice-go/internal/config"
	"github.com/classboard/backoffice-go/internal/domain/payroll"
	appHTTP "github.com/classboard/backoffice-go/internal/handler/http"
	"github.com/classboard/backoffice-go/internal/pkg/cron"
	"github.com/classboard/backoffice-go/internal/pkg/database"
	"github.com/classboard/backoffice-go/internal/pkg/jwt"
	"github.com/classboard/backoffice-go/internal/pkg/storage"
	"github.com/classboard/backoffice-go/internal/repository/postgresql"
	assignmentService "github.com/classboard/backoffice-go/internal/service/assignment"
	"github.com/classboard/backoffice-go/internal/service/conflict"
	explanationService "github.com/classboard/backoffice-go/internal/service/explanation"
	payrollService "github.com/classboard/backoffice-go/internal/service/payroll"
	scheduleService "github.com/classboard/backoffice-go/internal/service/schedule"
	swapService "github.com/classboard/backoffice-go/internal/service/swap"
	templateService "github.com/classboard/backoffice-go/internal/service/template"
	violationService "github.com/classboard/backoffice-go/internal/service/violation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	templateRepo := postgresql.NewTemplateRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	absenceRepo := postgresql.NewAbsenceRepository(db)
	violationRepo := postgresql.NewViolationRepository(db)
	explanationRepo := postgresql.NewExplanationRepository(db)
	evidenceRepo := postgresql.NewEvidenceRepository(db)
	swapRepo := postgresql.NewSwapRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	salaryProvider := postgresql.NewSalaryProvider(db)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage:", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	// Advisory-lock critical section: the conflict check and insert run in
	// one transaction, safe across multiple instances.
	locks := postgresql.NewAssignmentLock(db)
	detector := conflict.NewDetector(assignmentRepo, absenceRepo)

	templateSvc := templateService.NewTemplateService(templateRepo)
	assignmentSvc := assignmentService.NewAssignmentService(
		assignmentRepo,
		templateRepo,
		detector,
		locks,
		cfg.Attendance.NoShowGraceMinutes,
		nil,
	)
	scheduleSvc := scheduleService.NewScheduleService(
		scheduleRepo,
		assignmentRepo,
		templateRepo,
		detector,
		locks,
		nil,
	)
	violationSvc := violationService.NewViolationService(
		violationRepo,
		explanationRepo,
		assignmentRepo,
		cfg.Attendance.LateToleranceMinutes,
		cfg.Attendance.EarlyToleranceMinutes,
		nil,
	)
	explanationSvc := explanationService.NewExplanationService(
		violationRepo,
		explanationRepo,
		evidenceRepo,
		fileStorage,
		nil,
	)
	swapSvc := swapService.NewSwapService(
		swapRepo,
		assignmentRepo,
		detector,
		locks,
		nil,
	)
	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		assignmentRepo,
		violationRepo,
		explanationRepo,
		salaryProvider,
		payroll.Settings{
			DeductionPerMinute:   cfg.Payroll.DeductionPerMinute,
			OvertimePayPerMinute: cfg.Payroll.OvertimePayPerMinute,
		},
		nil,
	)

	sweeps := cron.NewSweepJobs(
		assignmentSvc,
		scheduleSvc,
		violationSvc,
		swapSvc,
		cfg.Attendance.ArchiveRetainDays,
		cfg.Attendance.DetectLookbackDays,
	)
	scheduler := cron.NewScheduler()
	sweeps.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	templateHandler := appHTTP.NewTemplateHandler(templateSvc)
	scheduleHandler := appHTTP.NewScheduleHandler(scheduleSvc)
	assignmentHandler := appHTTP.NewAssignmentHandler(assignmentSvc)
	violationHandler := appHTTP.NewViolationHandler(violationSvc, cfg.Attendance.ViolationSLADays)
	explanationHandler := appHTTP.NewExplanationHandler(explanationSvc)
	swapHandler := appHTTP.NewSwapHandler(swapSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(
		jwtService,
		cfg.App.Env,
		templateHandler,
		scheduleHandler,
		assignmentHandler,
		violationHandler,
		explanationHandler,
		swapHandler,
		payrollHandler,
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Println("Server starting on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("Server failed:", err)
	}
}
