package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/broadcast"
	"github.com/oomaltseva/telegram-bot/internal/catalog"
	"github.com/oomaltseva/telegram-bot/internal/convstate"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

const (
	adminID = int64(100)
	userID  = int64(7)
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	sent      []sentMessage
	forwarded []int64
	copied    []int64
	edits     []string
	answers   []string
	documents []telegram.SendDocumentRequest
	sendErr   error
}

func (f *fakeAPI) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: req.ChatID, text: req.Text})
	return &telegram.Message{MessageID: int64(len(f.sent))}, nil
}

func (f *fakeAPI) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := f.SendMessage(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: text})
	return err
}

func (f *fakeAPI) CopyMessage(_ context.Context, chatID, _, _ int64) (int64, error) {
	f.copied = append(f.copied, chatID)
	return 1, nil
}

func (f *fakeAPI) ForwardMessage(_ context.Context, chatID, _, _ int64) (*telegram.Message, error) {
	f.forwarded = append(f.forwarded, chatID)
	return &telegram.Message{MessageID: 99}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, req telegram.EditMessageTextRequest) error {
	f.edits = append(f.edits, req.Text)
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, req telegram.AnswerCallbackQueryRequest) error {
	f.answers = append(f.answers, req.Text)
	return nil
}

func (f *fakeAPI) SendDocument(_ context.Context, req telegram.SendDocumentRequest) error {
	f.documents = append(f.documents, req)
	return nil
}

func (f *fakeAPI) textsTo(chatID int64) []string {
	var out []string
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

type fakeUsers struct {
	byID    map[int64]*models.User
	upserts []models.User
	deleted []int64
}

func (f *fakeUsers) UpsertUser(_ context.Context, u models.User) error {
	f.upserts = append(f.upserts, u)
	return nil
}

func (f *fakeUsers) UserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) AllUsers(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UsersByQuery(context.Context, string) ([]models.User, error) { return nil, nil }

func (f *fakeUsers) UsersByIdentifiers(_ context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.byID {
		for _, id := range ids {
			if u.Phone != nil && *u.Phone == id {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) DeleteUsersByIdentifiers(_ context.Context, ids []string) (int64, error) {
	return int64(len(ids)), nil
}

type fakeLibrary struct {
	folders []models.Folder
	created []string
	viewErr error
}

func (f *fakeLibrary) CreateFolder(_ context.Context, name string) error {
	f.created = append(f.created, name)
	return nil
}

func (f *fakeLibrary) Folders(context.Context) ([]models.Folder, error) { return f.folders, nil }
func (f *fakeLibrary) DeleteFolder(context.Context, string) error       { return nil }
func (f *fakeLibrary) PostsByFolder(context.Context, uint) ([]models.Post, error) {
	return nil, nil
}
func (f *fakeLibrary) DeletePostByTitle(context.Context, string) error { return nil }
func (f *fakeLibrary) DeletePostByID(context.Context, uint) (uint, error) {
	return 0, store.ErrPostNotFound
}
func (f *fakeLibrary) ViewPost(context.Context, int64, uint) (*models.Post, error) {
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return nil, store.ErrPostNotFound
}

type fakeTickets struct {
	opened []string
	closed []int64
}

func (f *fakeTickets) Open(_ context.Context, _ int64, _, excerpt string) error {
	f.opened = append(f.opened, excerpt)
	return nil
}

func (f *fakeTickets) CloseMostRecentOpen(_ context.Context, userID, _ int64) error {
	f.closed = append(f.closed, userID)
	return nil
}

func (f *fakeTickets) ListOpen(context.Context) ([]models.SupportTicket, error) { return nil, nil }

type fakeResolver struct {
	byToken map[string]int64
	replyID int64
}

func (f *fakeResolver) Resolve(_ context.Context, token string) (int64, error) {
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return 0, store.ErrNotFound
}

func (f *fakeResolver) FromReply(*telegram.Message) (int64, bool) {
	return f.replyID, f.replyID != 0
}

type fakeBroadcaster struct {
	runs    []uint
	drafts  []convstate.Draft
	directs [][]int64
}

func (f *fakeBroadcaster) Run(_ context.Context, d convstate.Draft, folderID uint) (*broadcast.Report, error) {
	f.runs = append(f.runs, folderID)
	f.drafts = append(f.drafts, d)
	return &broadcast.Report{Recipients: 3, Sent: 3}, nil
}

func (f *fakeBroadcaster) DirectSend(_ context.Context, ids []int64, _ string) *broadcast.Report {
	f.directs = append(f.directs, ids)
	return &broadcast.Report{Recipients: len(ids), Sent: len(ids)}
}

type fixture struct {
	bot         *Bot
	api         *fakeAPI
	users       *fakeUsers
	library     *fakeLibrary
	tickets     *fakeTickets
	resolver    *fakeResolver
	broadcaster *fakeBroadcaster
	state       *convstate.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:         &fakeAPI{},
		users:       &fakeUsers{byID: map[int64]*models.User{}},
		library:     &fakeLibrary{folders: []models.Folder{{ID: 2, Name: "📘 Корисності"}}},
		tickets:     &fakeTickets{},
		resolver:    &fakeResolver{byToken: map[string]int64{}},
		broadcaster: &fakeBroadcaster{},
		state:       convstate.NewStore(),
	}
	b, err := New(Options{
		API:           f.api,
		Users:         f.users,
		Library:       f.library,
		Tickets:       f.tickets,
		Resolver:      f.resolver,
		Broadcaster:   f.broadcaster,
		State:         f.state,
		Admins:        []int64{adminID},
		AdminTitles:   map[int64]string{adminID: "тренерки з продукту Галини"},
		ArchiveChatID: -100,
	})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	f.bot = b
	return f
}

func message(fromID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: 1,
		From:      &telegram.User{ID: fromID, FirstName: "Оля"},
		Chat:      telegram.Chat{ID: fromID},
		Text:      text,
	}
}

func TestStart_NewUserGetsRegistrationPrompt(t *testing.T) {
	f := newFixture(t)

	if err := f.bot.handleMessage(context.Background(), message(userID, "/start")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.users.upserts) != 1 || f.users.upserts[0].ID != userID {
		t.Fatalf("upserts = %+v", f.users.upserts)
	}
	texts := f.api.textsTo(userID)
	if len(texts) != 1 || !strings.Contains(texts[0], "поділитися номером телефону") {
		t.Fatalf("greeting = %v", texts)
	}
}

func TestStart_RegisteredUserGetsWelcome(t *testing.T) {
	f := newFixture(t)
	phone := "+380671234567"
	f.users.byID[userID] = &models.User{ID: userID, Phone: &phone}

	if err := f.bot.handleMessage(context.Background(), message(userID, "/start")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	texts := f.api.textsTo(userID)
	if len(texts) != 1 || !strings.Contains(texts[0], "Раді вітати тебе") {
		t.Fatalf("greeting = %v", texts)
	}
}

func TestContact_StoresPhone(t *testing.T) {
	f := newFixture(t)
	msg := message(userID, "")
	msg.Contact = &telegram.Contact{PhoneNumber: "+380660000001"}

	if err := f.bot.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.users.upserts) != 1 || f.users.upserts[0].Phone == nil || *f.users.upserts[0].Phone != "+380660000001" {
		t.Fatalf("upserts = %+v", f.users.upserts)
	}
}

func TestRelay_ForwardsToAdminsAndOpensTicket(t *testing.T) {
	f := newFixture(t)

	if err := f.bot.handleMessage(context.Background(), message(userID, "потрібна допомога")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.api.forwarded) != 1 || f.api.forwarded[0] != adminID {
		t.Fatalf("forwarded = %v", f.api.forwarded)
	}
	if len(f.tickets.opened) != 1 || f.tickets.opened[0] != "потрібна допомога" {
		t.Fatalf("tickets = %v", f.tickets.opened)
	}

	adminTexts := f.api.textsTo(adminID)
	if len(adminTexts) != 1 || !strings.Contains(adminTexts[0], "🔑 ID: <code>7</code>") {
		t.Fatalf("caption = %v", adminTexts)
	}
	userTexts := f.api.textsTo(userID)
	if len(userTexts) != 1 || !strings.Contains(userTexts[0], "Ваше повідомлення отримано") {
		t.Fatalf("ack = %v", userTexts)
	}
}

func TestRelay_IgnoresUnknownSlashCommand(t *testing.T) {
	f := newFixture(t)

	if err := f.bot.handleMessage(context.Background(), message(userID, "/whatever")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.api.sent) != 0 || len(f.tickets.opened) != 0 {
		t.Fatalf("slash message leaked into relay: sent=%v tickets=%v", f.api.sent, f.tickets.opened)
	}
}

func TestAdminReply_SendsSignatureAndClosesTicket(t *testing.T) {
	f := newFixture(t)
	f.resolver.replyID = userID

	msg := message(adminID, "Відповідаю вам")
	msg.ReplyToMessage = &telegram.Message{Text: "🔑 ID: 7"}

	if err := f.bot.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	userTexts := f.api.textsTo(userID)
	if len(userTexts) != 1 || !strings.Contains(userTexts[0], "Відповідь від тренерки з продукту Галини") {
		t.Fatalf("reply = %v", userTexts)
	}
	if len(f.tickets.closed) != 1 || f.tickets.closed[0] != userID {
		t.Fatalf("closed = %v", f.tickets.closed)
	}
}

func TestAdminCommand_RejectedForUser(t *testing.T) {
	f := newFixture(t)

	if err := f.bot.handleMessage(context.Background(), message(userID, "/check_db")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	texts := f.api.textsTo(userID)
	if len(texts) != 1 || texts[0] != noAdminRightsText {
		t.Fatalf("texts = %v", texts)
	}
}

func TestBroadcastFlow_UnsupportedContentStaysAwaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bot.handleMessage(ctx, message(adminID, "/broadcast")); err != nil {
		t.Fatalf("/broadcast: %v", err)
	}
	if f.state.Phase(adminID) != convstate.PhaseAwaitingContent {
		t.Fatalf("phase = %v", f.state.Phase(adminID))
	}

	sticker := message(adminID, "")
	if err := f.bot.handleMessage(ctx, sticker); err != nil {
		t.Fatalf("sticker: %v", err)
	}
	if f.state.Phase(adminID) != convstate.PhaseAwaitingContent {
		t.Fatalf("phase after unsupported content = %v, want still awaiting", f.state.Phase(adminID))
	}
	if len(f.broadcaster.runs) != 0 {
		t.Fatalf("broadcast ran on unsupported content")
	}
	texts := f.api.textsTo(adminID)
	if !strings.Contains(texts[len(texts)-1], "Непідтримуваний тип контенту") {
		t.Fatalf("texts = %v", texts)
	}
}

func TestBroadcastFlow_FullSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bot.handleMessage(ctx, message(adminID, "/broadcast")); err != nil {
		t.Fatalf("/broadcast: %v", err)
	}
	if err := f.bot.handleMessage(ctx, message(adminID, "Hello\nworld")); err != nil {
		t.Fatalf("content: %v", err)
	}
	if f.state.Phase(adminID) != convstate.PhaseAwaitingFolder {
		t.Fatalf("phase = %v, want awaiting folder", f.state.Phase(adminID))
	}

	cb := &telegram.CallbackQuery{
		ID:      "cb1",
		From:    telegram.User{ID: adminID},
		Data:    cbSaveToFolder + "2",
		Message: &telegram.Message{MessageID: 5, Chat: telegram.Chat{ID: adminID}},
	}
	if err := f.bot.handleCallback(ctx, cb); err != nil {
		t.Fatalf("callback: %v", err)
	}

	if len(f.broadcaster.runs) != 1 || f.broadcaster.runs[0] != 2 {
		t.Fatalf("runs = %v, want folder 2", f.broadcaster.runs)
	}
	if d := f.broadcaster.drafts[0]; d.Title != "Hello" || d.RawText != "Hello\nworld" {
		t.Fatalf("draft = %+v", d)
	}
	if f.state.Phase(adminID) != convstate.PhaseNone {
		t.Fatalf("phase after run = %v, want cleared", f.state.Phase(adminID))
	}
	texts := f.api.textsTo(adminID)
	if !strings.Contains(texts[len(texts)-1], "Розсилка завершена") {
		t.Fatalf("texts = %v", texts)
	}
}

func TestBroadcastFlow_UnknownSlashTextIsCaptured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bot.handleMessage(ctx, message(adminID, "/broadcast")); err != nil {
		t.Fatalf("/broadcast: %v", err)
	}
	if err := f.bot.handleMessage(ctx, message(adminID, "/promo special offer")); err != nil {
		t.Fatalf("content: %v", err)
	}
	if f.state.Phase(adminID) != convstate.PhaseAwaitingFolder {
		t.Fatalf("phase = %v, want awaiting folder", f.state.Phase(adminID))
	}
	d, ok := f.state.TakeDraft(adminID)
	if !ok || d.RawText != "/promo special offer" {
		t.Fatalf("draft = %+v ok=%v", d, ok)
	}
}

func TestViewPost_UnconfiguredArchiveGetsDistinctAlert(t *testing.T) {
	f := newFixture(t)
	f.library.viewErr = catalog.ErrArchiveNotConfigured

	cb := &telegram.CallbackQuery{
		ID:   "cb9",
		From: telegram.User{ID: userID},
		Data: cbViewPostPrefix + "4",
	}
	if err := f.bot.handleCallback(context.Background(), cb); err != nil {
		t.Fatalf("handleCallback: %v", err)
	}
	if len(f.api.answers) != 1 || f.api.answers[0] != "Помилка: Канал-архів не налаштований." {
		t.Fatalf("answers = %v", f.api.answers)
	}
}

func TestCancel_ClearsFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bot.handleMessage(ctx, message(adminID, "/broadcast")); err != nil {
		t.Fatalf("/broadcast: %v", err)
	}
	if err := f.bot.handleMessage(ctx, message(adminID, "/cancel")); err != nil {
		t.Fatalf("/cancel: %v", err)
	}
	if f.state.Phase(adminID) != convstate.PhaseNone {
		t.Fatalf("phase = %v, want none", f.state.Phase(adminID))
	}
}

func TestSendSegment_ResolvesAndDelivers(t *testing.T) {
	f := newFixture(t)
	phone := "+380660000001"
	f.users.byID[userID] = &models.User{ID: userID, Phone: &phone}

	if err := f.bot.handleMessage(context.Background(),
		message(adminID, "/send_segment +380660000001 Привіт усім")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.broadcaster.directs) != 1 || len(f.broadcaster.directs[0]) != 1 || f.broadcaster.directs[0][0] != userID {
		t.Fatalf("directs = %v", f.broadcaster.directs)
	}
}

func TestExportCSV_SendsSemicolonDocument(t *testing.T) {
	f := newFixture(t)
	phone := "+380671234567"
	uname := "olena"
	f.users.byID[userID] = &models.User{ID: userID, Username: &uname, FullName: "Олена", Phone: &phone}

	if err := f.bot.handleMessage(context.Background(), message(adminID, "/export_csv")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.api.documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(f.api.documents))
	}
	doc := f.api.documents[0]
	if doc.FileName != "users_export.csv" {
		t.Fatalf("file name = %q", doc.FileName)
	}
	body := string(doc.Data)
	if !strings.HasPrefix(body, "ID;Username;Full Name;Phone Number\n") {
		t.Fatalf("header = %q", body)
	}
	if !strings.Contains(body, "7;olena;Олена;+380671234567") {
		t.Fatalf("row missing: %q", body)
	}
}

func TestDeleteUser_ResolvedByPhone(t *testing.T) {
	f := newFixture(t)
	f.resolver.byToken["+380671234567"] = userID

	if err := f.bot.handleMessage(context.Background(), message(adminID, "/delete_user +380671234567")); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.users.deleted) != 1 || f.users.deleted[0] != userID {
		t.Fatalf("deleted = %v", f.users.deleted)
	}
}

func TestMenuButton_OpensFolderList(t *testing.T) {
	f := newFixture(t)

	if err := f.bot.handleMessage(context.Background(), message(userID, menuButtonLabel)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	texts := f.api.textsTo(userID)
	if len(texts) != 1 || !strings.Contains(texts[0], "Головне меню") {
		t.Fatalf("texts = %v", texts)
	}
	// A button press is not relayed to admins.
	if len(f.tickets.opened) != 0 {
		t.Fatalf("menu press opened ticket")
	}
}
