package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"

	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the persistence semantics the
// services rely on: copy-on-read, copy-on-write, record-not-found errors.

type fakeChallengeRepo struct {
	mu         sync.Mutex
	nextID     int64
	challenges map[int64]entity.Challenge
	saveErr    error
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{nextID: 1, challenges: make(map[int64]entity.Challenge)}
}

func (r *fakeChallengeRepo) Create(_ context.Context, challenge *entity.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge.ID = r.nextID
	r.nextID++
	r.challenges[challenge.ID] = *challenge
	return nil
}

func (r *fakeChallengeRepo) FindByID(_ context.Context, id int64) (*entity.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, ok := r.challenges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &challenge, nil
}

func (r *fakeChallengeRepo) FindActive(_ context.Context) ([]entity.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []entity.Challenge
	for _, challenge := range r.challenges {
		if challenge.Status == entity.ChallengeStatusActive {
			active = append(active, challenge)
		}
	}
	return active, nil
}

func (r *fakeChallengeRepo) Save(_ context.Context, challenge *entity.Challenge) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[challenge.ID] = *challenge
	return nil
}

func (r *fakeChallengeRepo) get(id int64) entity.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.challenges[id]
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]entity.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: make(map[int64]entity.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &order, nil
}

func (r *fakeOrderRepo) Get(_ context.Context, param dto.GetOrdersParam) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []entity.Order
	for _, order := range r.orders {
		if order.ChallengeID != param.ChallengeID {
			continue
		}
		if param.Status != nil && string(order.Status) != *param.Status {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *fakeOrderRepo) FindOpenByChallenge(_ context.Context, challengeID int64) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []entity.Order
	for _, order := range r.orders {
		if order.ChallengeID == challengeID && order.Status == entity.OrderStatusOpen {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

type fakeDailyStatRepo struct {
	mu     sync.Mutex
	nextID int64
	stats  map[int64]entity.DailyStat
}

func newFakeDailyStatRepo() *fakeDailyStatRepo {
	return &fakeDailyStatRepo{nextID: 1, stats: make(map[int64]entity.DailyStat)}
}

func (r *fakeDailyStatRepo) Create(_ context.Context, stat *entity.DailyStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stat.ID = r.nextID
	r.nextID++
	r.stats[stat.ID] = *stat
	return nil
}

func (r *fakeDailyStatRepo) FindByChallengeAndDate(_ context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stat := range r.stats {
		if stat.ChallengeID == challengeID && stat.Date.Equal(date) {
			found := stat
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeDailyStatRepo) FindLatestBefore(_ context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.DailyStat
	for _, stat := range r.stats {
		if stat.ChallengeID != challengeID || !stat.Date.Before(date) {
			continue
		}
		if latest == nil || stat.Date.After(latest.Date) {
			found := stat
			latest = &found
		}
	}
	return latest, nil
}

func (r *fakeDailyStatRepo) FindByChallenge(_ context.Context, challengeID int64) ([]entity.DailyStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats []entity.DailyStat
	for _, stat := range r.stats {
		if stat.ChallengeID == challengeID {
			stats = append(stats, stat)
		}
	}
	return stats, nil
}

func (r *fakeDailyStatRepo) CountByChallenge(_ context.Context, challengeID int64) (int64, error) {
	stats, _ := r.FindByChallenge(context.Background(), challengeID)
	return int64(len(stats)), nil
}

func (r *fakeDailyStatRepo) Save(_ context.Context, stat *entity.DailyStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stat.ID == 0 {
		stat.ID = r.nextID
		r.nextID++
	}
	r.stats[stat.ID] = *stat
	return nil
}

type fakeWarningLogRepo struct {
	mu   sync.Mutex
	logs map[string]entity.WarningLog
}

func newFakeWarningLogRepo() *fakeWarningLogRepo {
	return &fakeWarningLogRepo{logs: make(map[string]entity.WarningLog)}
}

func warningLogKey(challengeID int64, warningKey string) string {
	return fmt.Sprintf("%d:%s", challengeID, warningKey)
}

func (r *fakeWarningLogRepo) Exists(_ context.Context, challengeID int64, warningKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.logs[warningLogKey(challengeID, warningKey)]
	return ok, nil
}

func (r *fakeWarningLogRepo) Create(_ context.Context, log *entity.WarningLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[warningLogKey(log.ChallengeID, log.WarningKey)] = *log
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []entity.Notification
	createErr     error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *entity.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = int64(len(r.notifications) + 1)
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) FindByUser(_ context.Context, userID int64, unreadOnly bool) ([]entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Read = true
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[int64]entity.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

type fakeUnitOfWork struct {
	repos repository.TxRepositories
	err   error
}

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(repos repository.TxRepositories) error) error {
	if u.err != nil {
		return u.err
	}
	return fn(u.repos)
}

type sentMail struct {
	To       string
	Template string
	Data     map[string]interface{}
}

type fakeMailSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailSender) Send(_ context.Context, to, templateName string, data map[string]interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Template: templateName, Data: data})
	return nil
}

func (m *fakeMailSender) byTemplate(templateName string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []sentMail
	for _, mail := range m.sent {
		if mail.Template == templateName {
			result = append(result, mail)
		}
	}
	return result
}

type fakeOpsNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *fakeOpsNotifier) SendMessage(text string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

// testEngine wires the whole pipeline onto the in-memory fakes.
type testEngine struct {
	challengeRepo    *fakeChallengeRepo
	orderRepo        *fakeOrderRepo
	dailyStatRepo    *fakeDailyStatRepo
	warningLogRepo   *fakeWarningLogRepo
	notificationRepo *fakeNotificationRepo
	mailSender       *fakeMailSender
	opsNotifier      *fakeOpsNotifier
	clock            utils.FixedClock

	warningSvc WarningService
	breachSvc  BreachService
	ruleSvc    RuleService
	tradeSvc   TradeService
}

func newTestEngine(now time.Time) *testEngine {
	e := &testEngine{
		challengeRepo:    newFakeChallengeRepo(),
		orderRepo:        newFakeOrderRepo(),
		dailyStatRepo:    newFakeDailyStatRepo(),
		warningLogRepo:   newFakeWarningLogRepo(),
		notificationRepo: newFakeNotificationRepo(),
		mailSender:       &fakeMailSender{},
		opsNotifier:      &fakeOpsNotifier{},
		clock:            utils.FixedClock{Time: now},
	}

	e.rewire()
	return e
}

// rewire rebuilds the services over the current fakes. Tests that swap a
// store or advance the clock call it to pick the changes up.
func (e *testEngine) rewire() {
	log := logger.NewNop()
	uow := &fakeUnitOfWork{repos: repository.TxRepositories{
		Challenges:    e.challengeRepo,
		DailyStats:    e.dailyStatRepo,
		Notifications: e.notificationRepo,
	}}

	e.warningSvc = NewWarningService(log, e.warningLogRepo, e.notificationRepo, e.mailSender, e.clock, "https://app.example/dashboard")
	e.breachSvc = NewBreachService(log, uow, e.dailyStatRepo, e.mailSender, e.opsNotifier, e.clock, "https://app.example/reset-offer")
	e.ruleSvc = NewRuleService(log, e.challengeRepo, e.dailyStatRepo, e.orderRepo, e.warningSvc, e.clock)
	e.tradeSvc = NewTradeService(log, e.challengeRepo, e.orderRepo, e.dailyStatRepo, e.ruleSvc, e.breachSvc, e.clock)
}

// seedChallenge creates an active challenge with sensible defaults.
func (e *testEngine) seedChallenge(accountSize, maxDrawdown, maxDailyLoss float64, phase entity.ChallengePhase) *entity.Challenge {
	challenge := &entity.Challenge{
		UserID:              1,
		AccountSize:         accountSize,
		CurrentBalance:      accountSize,
		HighestBalance:      accountSize,
		MaxDrawdownPercent:  maxDrawdown,
		MaxDailyLossPercent: maxDailyLoss,
		Phase:               phase,
		Status:              entity.ChallengeStatusActive,
		StartDate:           e.clock.Now(),
		User: entity.User{
			ID:        1,
			Email:     "trader@example.com",
			FirstName: "Ada",
		},
	}
	_ = e.challengeRepo.Create(context.Background(), challenge)
	return challenge
}
