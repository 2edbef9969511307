package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/config"
	"tes/crm/internal/email"
	"tes/crm/internal/inquiry"
	"tes/crm/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeExpiryScan    = "expiry:scan"
	TypeInquiryNotify = "inquiry:notify"
)

// InquiryNotifyPayload identifies the inquiry a notification task is about.
type InquiryNotifyPayload struct {
	InquiryID string `json:"inquiry_id"`
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr: rdb.Options().Addr,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds the
// dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	inquiryService services.IInquiryService
	userService    services.IUserService
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	inquiryService services.IInquiryService,
	userService services.IUserService,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		inquiryService: inquiryService,
		userService:    userService,
	}
}

// SetupServer configures an Asynq server and its handler mux. The caller
// runs srv.Run(mux), typically in a goroutine, and calls srv.Shutdown()
// on exit.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr: rdb.Options().Addr,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpiryScan, processor.HandleExpiryScanTask)
	mux.HandleFunc(TypeInquiryNotify, processor.HandleInquiryNotifyTask)

	return srv, mux
}

// SetupScheduler starts a cron scheduler that enqueues the daily
// reservation expiry scan. The schedule and timezone come from config;
// the default is 08:00 Asia/Manila every day.
func SetupScheduler(cfg *config.Config, taskClient *asynq.Client) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(cfg.Location()))
	_, err := c.AddFunc(cfg.ExpiryScanCron, func() {
		task := asynq.NewTask(TypeExpiryScan, nil, asynq.Queue("critical"))
		if _, err := taskClient.Enqueue(task); err != nil {
			log.Printf("ERROR: Failed to enqueue expiry scan: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule expiry scan (%q): %w", cfg.ExpiryScanCron, err)
	}
	c.Start()
	log.Printf("Scheduled reservation expiry scan: %q (%s)", cfg.ExpiryScanCron, cfg.Timezone)
	return c, nil
}

// --- Task Handlers ---

// HandleExpiryScanTask runs the daily reservation sweep: every inquiry
// holding a reservation that is expired or expiring within the warning
// window produces a digest line. Each affected agent gets their own
// digest; the admin alert address gets the full report.
func (p *TaskProcessor) HandleExpiryScanTask(ctx context.Context, t *asynq.Task) error {
	warnings, err := p.inquiryService.ScanExpiryWarnings(ctx, time.Now().In(p.cfg.Location()))
	if err != nil {
		return fmt.Errorf("expiry scan failed: %w", err)
	}
	if len(warnings) == 0 {
		log.Println("Expiry scan: no reservations in the warning window.")
		return nil
	}

	if p.cfg.AdminAlertEmail != "" {
		subject := fmt.Sprintf("Reservation expiry report: %d warning(s), %d expired",
			len(warnings), inquiry.CountExpired(warnings))
		if err := p.emailSender.Send(ctx, []string{p.cfg.AdminAlertEmail}, subject, digestBody(warnings)); err != nil {
			log.Printf("ERROR: Failed to send admin expiry digest: %v", err)
		}
	}

	for agentID, agentWarnings := range groupByAgent(warnings) {
		agent, err := p.userService.FindByID(ctx, agentID)
		if err != nil {
			log.Printf("WARN: Expiry digest skipped for unknown agent %s: %v", agentID.Hex(), err)
			continue
		}
		subject := fmt.Sprintf("Reservation expiry: %d of your reservations need attention", len(agentWarnings))
		if err := p.emailSender.Send(ctx, []string{agent.Email}, subject, digestBody(agentWarnings)); err != nil {
			log.Printf("ERROR: Failed to send expiry digest to %s: %v", agent.Email, err)
		}
	}
	return nil
}

// HandleInquiryNotifyTask alerts the portal that a customer submitted a
// new inquiry. Inquiries start unassigned, so the alert goes to the
// admin address.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notify payload: %v: %w", err, asynq.SkipRetry)
	}
	id, err := primitive.ObjectIDFromHex(payload.InquiryID)
	if err != nil {
		return fmt.Errorf("bad inquiry ID %q: %v: %w", payload.InquiryID, err, asynq.SkipRetry)
	}

	inq, err := p.inquiryService.FindInquiryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load inquiry %s: %w", payload.InquiryID, err)
	}

	if p.cfg.AdminAlertEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("New inquiry for %s", inq.PropertyName)
	var body bytes.Buffer
	fmt.Fprintf(&body, "A new inquiry was submitted for %s.\n\n", inq.PropertyName)
	fmt.Fprintf(&body, "Customer: %s\n", inq.CustomerName)
	fmt.Fprintf(&body, "Email:    %s\n", inq.CustomerEmail)
	fmt.Fprintf(&body, "Phone:    %s\n", inquiry.FormatPhone(inq.CustomerPhone))
	if inq.Message != "" {
		fmt.Fprintf(&body, "\n%s\n", inq.Message)
	}

	if err := p.emailSender.Send(ctx, []string{p.cfg.AdminAlertEmail}, subject, body.Bytes()); err != nil {
		return fmt.Errorf("failed to send inquiry alert: %w", err)
	}
	return nil
}

func groupByAgent(warnings []inquiry.ExpiryWarning) map[primitive.ObjectID][]inquiry.ExpiryWarning {
	grouped := make(map[primitive.ObjectID][]inquiry.ExpiryWarning)
	for _, w := range warnings {
		if w.Inquiry.AssignedAgentID == nil {
			continue
		}
		grouped[*w.Inquiry.AssignedAgentID] = append(grouped[*w.Inquiry.AssignedAgentID], w)
	}
	return grouped
}

func digestBody(warnings []inquiry.ExpiryWarning) []byte {
	var body bytes.Buffer
	for _, w := range warnings {
		fmt.Fprintf(&body, "- [%s] %s (customer: %s)\n",
			w.Severity, w.Message, w.Inquiry.CustomerName)
	}
	return body.Bytes()
}
