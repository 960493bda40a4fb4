package handlers

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/services"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
	"meatbot/core/telegram/state"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// testContext implements the slice of tele.Context the handlers touch and
// records every outgoing message text.
type testContext struct {
	tele.Context

	sender  *tele.User
	message *tele.Message
	cb      *tele.Callback
	values  map[string]any

	sent []string
}

func (c *testContext) Sender() *tele.User { return c.sender }
func (c *testContext) Chat() *tele.Chat { return &tele.Chat{ID: c.sender.ID} }
func (c *testContext) Update() tele.Update { return tele.Update{} }
func (c *testContext) Message() *tele.Message { return c.message }
func (c *testContext) Callback() *tele.Callback { return c.cb }

func (c *testContext) Text() string {
	if c.message == nil {
		return ""
	}
	return c.message.Text
}

func (c *testContext) Get(key string) any { return c.values[key] }
func (c *testContext) Set(key string, val any) { c.values[key] = val }

func (c *testContext) Send(what any, _ ...any) error {
	c.record(what)
	return nil
}

func (c *testContext) EditOrSend(what any, _ ...any) error {
	c.record(what)
	return nil
}

func (c *testContext) Respond(_ ...*tele.CallbackResponse) error { return nil }

func (c *testContext) record(what any) {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
}

type fakeUserStore struct {
	byTG map[int64]*models.User
	seq  int64
}

func (f *fakeUserStore) Upsert(_ context.Context, tgID int64, username, firstName, lastName string) (*models.User, error) {
	if u, ok := f.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	f.seq++
	u := &models.User{
		ID:         f.seq,
		TelegramID: tgID,
		Username:   sql.NullString{String: username, Valid: username != ""},
		FirstName:  sql.NullString{String: firstName, Valid: firstName != ""},
		LastName:   sql.NullString{String: lastName, Valid: lastName != ""},
	}
	f.byTG[tgID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByTelegramID(_ context.Context, tgID int64) (*models.User, error) {
	u, ok := f.byTG[tgID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) byID(userID int64) *models.User {
	for _, u := range f.byTG {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func (f *fakeUserStore) SaveContact(_ context.Context, userID int64, phone string) error {
	if u := f.byID(userID); u != nil {
		u.Phone = sql.NullString{String: phone, Valid: true}
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeUserStore) SaveAddress(_ context.Context, userID int64, address string) error {
	if u := f.byID(userID); u != nil {
		u.Address = sql.NullString{String: address, Valid: true}
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeUserStore) SaveDeliveryNotes(_ context.Context, userID int64, notes string) error {
	if u := f.byID(userID); u != nil {
		u.DeliveryNotes = sql.NullString{String: notes, Valid: true}
		return nil
	}
	return storage.ErrNotFound
}

type fakeCartStore struct {
	lines map[int64][]models.CartLine
}

func (f *fakeCartStore) Add(_ context.Context, _, _ int64, _ int, _ decimal.Decimal) (*models.CartItem, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeCartStore) SetQuantity(_ context.Context, _, _ int64, _ int) error { return nil }
func (f *fakeCartStore) Remove(_ context.Context, _, _ int64) error { return nil }

func (f *fakeCartStore) Clear(_ context.Context, userID int64) error {
	delete(f.lines, userID)
	return nil
}

func (f *fakeCartStore) Lines(_ context.Context, userID int64) ([]models.CartLine, error) {
	return f.lines[userID], nil
}

func (f *fakeCartStore) RefreshPrices(_ context.Context, _ int64) error { return nil }

type fakeProductStore struct{}

func (fakeProductStore) Product(_ context.Context, _ int64) (*models.Product, error) {
	return nil, storage.ErrNotFound
}

type fakeOrderStore struct {
	lastNumber string
	orders     map[int64]*models.Order
	items      map[int64][]models.OrderItem
	nextID     int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
		nextID: 1,
	}
}

func (f *fakeOrderStore) seed(order models.Order) *models.Order {
	order.ID = f.nextID
	f.nextID++
	cp := order
	f.orders[cp.ID] = &cp
	f.lastNumber = cp.OrderNumber
	return &cp
}

func (f *fakeOrderStore) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	if f.lastNumber == "" || !strings.HasPrefix(f.lastNumber, prefix) {
		return "", storage.ErrNotFound
	}
	return f.lastNumber, nil
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	created := *order
	created.ID = f.nextID
	f.nextID++
	f.orders[created.ID] = &created
	f.items[created.ID] = items
	f.lastNumber = created.OrderNumber
	return &created, nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeOrderStore) Items(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) ActiveByUser(_ context.Context, _ int64, _, _ int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) HistoryByUser(_ context.Context, _ int64, _, _ int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) ListByStatus(_ context.Context, _ models.OrderStatus, _, _ int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id int64, status models.OrderStatus, payment *models.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	o.Status = status
	if payment != nil {
		o.PaymentStatus = *payment
	}
	return nil
}

func (f *fakeOrderStore) Stats(_ context.Context) (*models.OrderStats, error) {
	return &models.OrderStats{}, nil
}

type fakePaymentStore struct{}

func (fakePaymentStore) Active(_ context.Context) (*models.PaymentSettings, error) {
	return nil, storage.ErrNotFound
}

func (fakePaymentStore) Replace(_ context.Context, _, _, _, _ string) (*models.PaymentSettings, error) {
	return nil, storage.ErrNotFound
}

func (fakePaymentStore) Deactivate(_ context.Context) error { return nil }

type fakeAdminStore struct {
	admins map[int64]*models.AdminUser
}

func (f *fakeAdminStore) GetByTelegramID(_ context.Context, tgID int64) (*models.AdminUser, error) {
	a, ok := f.admins[tgID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdminStore) Upsert(_ context.Context, tgID int64, role models.AdminRole) (*models.AdminUser, error) {
	a, ok := f.admins[tgID]
	if !ok {
		a = &models.AdminUser{TelegramID: tgID}
		f.admins[tgID] = a
	}
	a.Role = role
	a.IsActive = true
	cp := *a
	return &cp, nil
}

func (f *fakeAdminStore) Deactivate(_ context.Context, tgID int64) error {
	a, ok := f.admins[tgID]
	if !ok {
		return storage.ErrNotFound
	}
	a.IsActive = false
	return nil
}

func (f *fakeAdminStore) List(_ context.Context) ([]models.AdminUser, error) {
	out := make([]models.AdminUser, 0, len(f.admins))
	for _, a := range f.admins {
		out = append(out, *a)
	}
	return out, nil
}

// botEnv wires real services over in-memory stores.
type botEnv struct {
	h      *Handlers
	fsm    state.Manager
	users  *fakeUserStore
	cart   *fakeCartStore
	orders *fakeOrderStore
	admins *fakeAdminStore
}

func newBotEnv() *botEnv {
	users := &fakeUserStore{byTG: make(map[int64]*models.User)}
	cart := &fakeCartStore{lines: make(map[int64][]models.CartLine)}
	orders := newFakeOrderStore()
	admins := &fakeAdminStore{admins: make(map[int64]*models.AdminUser)}
	fsm := state.NewMemoryManager()

	h := New(Deps{
		Users:    services.NewUserService(users),
		Cart:     services.NewCartService(cart, fakeProductStore{}),
		Orders:   services.NewOrderService(orders, cart),
		Payments: services.NewPaymentService(fakePaymentStore{}),
		Admins:   services.NewAdminService(admins),
		Prices:   services.NewPriceFormatter("₽"),
		FSM:      fsm,
	})
	h.registerCheckoutStates()

	return &botEnv{h: h, fsm: fsm, users: users, cart: cart, orders: orders, admins: admins}
}

func (e *botEnv) addUser(tgID int64) *models.User {
	u, _ := e.users.Upsert(context.Background(), tgID, "user", "Имя", "")
	return u
}

func (e *botEnv) textMsg(tgID int64, text string) *testContext {
	return &testContext{
		sender:  &tele.User{ID: tgID, FirstName: "Имя"},
		message: &tele.Message{Text: text, Sender: &tele.User{ID: tgID}},
		values:  map[string]any{},
	}
}

func (e *botEnv) callbackMsg(tgID int64, unique, data string) *testContext {
	return &testContext{
		sender: &tele.User{ID: tgID, FirstName: "Имя"},
		cb:     &tele.Callback{Unique: unique, Data: data},
		values: map[string]any{},
	}
}

func (e *botEnv) documentMsg(tgID int64) *testContext {
	c := e.textMsg(tgID, "")
	c.message.Document = &tele.Document{FileName: "check.jpg"}
	return c
}

func lastSent(t *testing.T, c *testContext) string {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return c.sent[len(c.sent)-1]
}

func ribeyeLine(qty int, price int64) models.CartLine {
	return models.CartLine{
		CartItem: models.CartItem{
			ProductID:  1,
			Quantity:   qty,
			PriceAtAdd: decimal.NewFromInt(price),
		},
		ProductName: "Стейк рибай",
		Unit:        "кг",
		IsAvailable: true,
	}
}

func TestCheckoutCashFlow(t *testing.T) {
	e := newBotEnv()
	user := e.addUser(100)
	e.cart.lines[user.ID] = []models.CartLine{ribeyeLine(2, 500)}

	c := e.callbackMsg(100, keyboards.CbCheckout, "")
	if err := e.h.StartCheckout(c); err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	if got := e.fsm.GetState(100); got != stCheckoutPhone {
		t.Fatalf("state after start = %q, want %q", got, stCheckoutPhone)
	}

	c = e.textMsg(100, "+7 916 123-45-67")
	if err := e.fsm.ManagerHandler(c); err != nil {
		t.Fatalf("phone step: %v", err)
	}
	if got := e.fsm.GetState(100); got != stCheckoutAddress {
		t.Fatalf("state after phone = %q, want %q", got, stCheckoutAddress)
	}
	if u := e.users.byID(user.ID); !u.HasSavedContact() || u.Phone.String != "+79161234567" {
		t.Fatalf("saved phone = %+v, want +79161234567", u.Phone)
	}

	c = e.textMsg(100, "Ленина 10, кв 5")
	if err := e.fsm.ManagerHandler(c); err != nil {
		t.Fatalf("address step: %v", err)
	}
	if got := e.fsm.GetState(100); got != stCheckoutNotes {
		t.Fatalf("state after address = %q, want %q", got, stCheckoutNotes)
	}

	c = e.callbackMsg(100, keyboards.CbCheckoutOpt, keyboards.OptSkip)
	if err := e.h.CheckoutOption(c); err != nil {
		t.Fatalf("skip notes: %v", err)
	}
	if got := e.fsm.GetState(100); got != stCheckoutPayment {
		t.Fatalf("state after notes = %q, want %q", got, stCheckoutPayment)
	}

	c = e.callbackMsg(100, keyboards.CbPayMethod, string(models.PayCash))
	if err := e.h.SelectPaymentMethod(c); err != nil {
		t.Fatalf("select cash: %v", err)
	}

	if len(e.orders.orders) != 1 {
		t.Fatalf("orders created = %d, want 1", len(e.orders.orders))
	}
	var order *models.Order
	for _, o := range e.orders.orders {
		order = o
	}
	if order.UserID != user.ID {
		t.Errorf("order user = %d, want %d", order.UserID, user.ID)
	}
	if !strings.HasSuffix(order.OrderNumber, "-0001") {
		t.Errorf("order number = %q, want -0001 suffix", order.OrderNumber)
	}
	if order.PaymentMethod.String != string(models.PayCash) {
		t.Errorf("payment method = %q, want cash", order.PaymentMethod.String)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %q, want pending", order.PaymentStatus)
	}
	if order.Phone != "+79161234567" || order.Address != "Ленина 10, кв 5" {
		t.Errorf("contact snapshot = %q / %q", order.Phone, order.Address)
	}
	if !order.Total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("order total = %s, want 1000", order.Total)
	}
	if e.fsm.InProgress(100) {
		t.Error("checkout state not cleared after placing the order")
	}
	if got := lastSent(t, c); !strings.Contains(got, order.OrderNumber) {
		t.Errorf("confirmation %q does not mention %q", got, order.OrderNumber)
	}
}

func TestCheckoutTransferWithDocument(t *testing.T) {
	e := newBotEnv()
	user := e.addUser(100)
	e.cart.lines[user.ID] = []models.CartLine{ribeyeLine(1, 700)}

	if err := e.h.StartCheckout(e.callbackMsg(100, keyboards.CbCheckout, "")); err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	if err := e.fsm.ManagerHandler(e.textMsg(100, "89161234567")); err != nil {
		t.Fatalf("phone step: %v", err)
	}
	if err := e.fsm.ManagerHandler(e.textMsg(100, "Арбат 12, кв 3")); err != nil {
		t.Fatalf("address step: %v", err)
	}
	if err := e.fsm.ManagerHandler(e.textMsg(100, "домофон 42")); err != nil {
		t.Fatalf("notes step: %v", err)
	}

	c := e.callbackMsg(100, keyboards.CbPayMethod, string(models.PayTransfer))
	if err := e.h.SelectPaymentMethod(c); err != nil {
		t.Fatalf("select transfer: %v", err)
	}
	if got := e.fsm.GetState(100); got != stCheckoutPaymentDoc {
		t.Fatalf("state after transfer = %q, want %q", got, stCheckoutPaymentDoc)
	}
	if got := lastSent(t, c); !strings.Contains(got, "Реквизиты") {
		t.Errorf("transfer instructions = %q, want requisites fallback", got)
	}

	// Plain text instead of a receipt keeps the conversation waiting.
	c = e.textMsg(100, "оплатил")
	if err := e.fsm.ManagerHandler(c); err != nil {
		t.Fatalf("text in doc step: %v", err)
	}
	if len(e.orders.orders) != 0 {
		t.Fatal("order created without a payment document")
	}
	if got := e.fsm.GetState(100); got != stCheckoutPaymentDoc {
		t.Fatalf("state after nudge = %q, want %q", got, stCheckoutPaymentDoc)
	}

	c = e.documentMsg(100)
	if err := e.fsm.ManagerHandler(c); err != nil {
		t.Fatalf("document step: %v", err)
	}
	if len(e.orders.orders) != 1 {
		t.Fatalf("orders created = %d, want 1", len(e.orders.orders))
	}
	for _, o := range e.orders.orders {
		if o.PaymentMethod.String != string(models.PayTransfer) {
			t.Errorf("payment method = %q, want transfer", o.PaymentMethod.String)
		}
		if o.PaymentStatus != models.PaymentPaid {
			t.Errorf("payment status = %q, want paid", o.PaymentStatus)
		}
		if o.DeliveryNotes.String != "домофон 42" {
			t.Errorf("notes snapshot = %q", o.DeliveryNotes.String)
		}
	}
	if e.fsm.InProgress(100) {
		t.Error("checkout state not cleared after placing the order")
	}
}

func TestSelectPaymentMethodOutsideCheckout(t *testing.T) {
	e := newBotEnv()
	user := e.addUser(100)
	e.cart.lines[user.ID] = []models.CartLine{ribeyeLine(1, 700)}

	// A tap on a payment button from an old message, no checkout running.
	c := e.callbackMsg(100, keyboards.CbPayMethod, string(models.PayCash))
	if err := e.h.SelectPaymentMethod(c); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}
	if len(e.orders.orders) != 0 {
		t.Fatal("stale payment tap created an order")
	}
	if got := lastSent(t, c); !strings.Contains(got, "неактуальна") {
		t.Errorf("stale tap reply = %q", got)
	}
}

func TestOrderViewHidesForeignOrders(t *testing.T) {
	e := newBotEnv()
	owner := e.addUser(100)
	e.addUser(200)

	order := e.orders.seed(models.Order{
		UserID:        owner.ID,
		OrderNumber:   "ORD-20260830-0001",
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: sql.NullString{String: string(models.PayCash), Valid: true},
		Phone:         "+79161234567",
		Address:       "Ленина 10, кв 5",
		Total:         decimal.NewFromInt(1000),
	})
	payload := strconv.FormatInt(order.ID, 10)

	c := e.callbackMsg(200, keyboards.CbOrderView, payload)
	if err := e.h.OrderView(c); err != nil {
		t.Fatalf("OrderView: %v", err)
	}
	if got := lastSent(t, c); !strings.Contains(got, "не найден") {
		t.Errorf("foreign view reply = %q, want not-found", got)
	}

	c = e.callbackMsg(200, keyboards.CbOrderCancel, payload)
	if err := e.h.OrderCancel(c); err != nil {
		t.Fatalf("OrderCancel: %v", err)
	}
	if got := lastSent(t, c); !strings.Contains(got, "не найден") {
		t.Errorf("foreign cancel reply = %q, want not-found", got)
	}
	if got := e.orders.orders[order.ID].Status; got != models.OrderPending {
		t.Fatalf("foreign cancel changed status to %q", got)
	}

	c = e.callbackMsg(100, keyboards.CbOrderView, payload)
	if err := e.h.OrderView(c); err != nil {
		t.Fatalf("OrderView (owner): %v", err)
	}
	if got := lastSent(t, c); !strings.Contains(got, order.OrderNumber) {
		t.Errorf("owner view = %q, want order card", got)
	}
}

func TestOrderViewStaffSeesAnyOrder(t *testing.T) {
	e := newBotEnv()
	owner := e.addUser(100)
	e.addUser(300)
	e.admins.admins[300] = &models.AdminUser{TelegramID: 300, Role: models.RoleModerator, IsActive: true}

	order := e.orders.seed(models.Order{
		UserID:        owner.ID,
		OrderNumber:   "ORD-20260830-0001",
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: sql.NullString{String: string(models.PayCash), Valid: true},
		Phone:         "+79161234567",
		Address:       "Ленина 10, кв 5",
		Total:         decimal.NewFromInt(1000),
	})

	c := e.callbackMsg(300, keyboards.CbOrderView, strconv.FormatInt(order.ID, 10))
	if err := e.h.OrderView(c); err != nil {
		t.Fatalf("OrderView (staff): %v", err)
	}
	if got := lastSent(t, c); !strings.Contains(got, order.OrderNumber) {
		t.Errorf("staff view = %q, want order card", got)
	}
}
