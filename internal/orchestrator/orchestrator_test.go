package orchestrator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/catalog"
	"baccarat-ledger/internal/display"
	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
	"baccarat-ledger/internal/idhash"
	"baccarat-ledger/internal/ledger"
	"baccarat-ledger/internal/spreadsheet"
	"baccarat-ledger/internal/storage"
	"baccarat-ledger/internal/storage/memory"
)

const (
	adminID     int64 = 42
	statChannel int64 = -1001
	displayChan int64 = -1002
)

var fixedNow = time.Date(2024, 5, 13, 0, 59, 0, 0, time.UTC)

type fixture struct {
	orch     *Orchestrator
	ledger   *ledger.Ledger
	catalog  *catalog.Catalog
	rec      *bus.Recorder
	settings *memory.SettingsStore
	archive  *memory.ResultArchive
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return fixedNow }

	l := ledger.New(ledger.Options{
		Store:     memory.NewResultStore(),
		Extractor: extractor.New(extractor.Options{Now: now, Location: time.UTC}),
		Now:       now,
	})
	require.NoError(t, l.Load(ctx))

	c := catalog.New(catalog.Options{
		Store:      memory.NewPredictionStore(),
		Now:        now,
		NewBatchID: func() string { return "batch-test" },
	})
	require.NoError(t, c.Load(ctx))

	rec := bus.NewRecorder()
	settings := memory.NewSettingsStore()
	archive := memory.NewResultArchive()

	o := New(Options{
		Ledger:     l,
		Catalog:    c,
		Settings:   settings,
		Archives:   []storage.ResultArchive{archive},
		Outbound:   rec,
		Downloader: rec,
		AdminID:    adminID,
		Defaults:   domain.Settings{StatChannel: statChannel, DisplayChannel: displayChan},
		Tolerance:  catalog.DefaultTolerance,
		Now:        now,
	})
	require.NoError(t, o.LoadSettings(ctx))

	return &fixture{orch: o, ledger: l, catalog: c, rec: rec, settings: settings, archive: archive}
}

func statEvent(id int, text string) bus.Event {
	return bus.Event{Kind: bus.KindMessage, ChatID: statChannel, MessageID: id, Text: text}
}

func adminEvent(text string) bus.Event {
	return bus.Event{Kind: bus.KindMessage, ChatID: adminID, SenderID: adminID, Private: true, Text: text}
}

func lastSent(t *testing.T, rec *bus.Recorder, chatID int64) string {
	t.Helper()
	msgs := rec.SentTo(chatID)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1].Text
}

func TestHandle_RecordsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")))

	assert.Equal(t, 1, f.ledger.Len())
	text := lastSent(t, f.rec, adminID)
	assert.Contains(t, text, "Partie enregistrée")
	assert.Contains(t, text, "Jeu #60: Joueur")
	assert.Contains(t, text, "• Joueur: 1 (100.0%)")
	assert.NotContains(t, text, "message finalisé")
}

func TestHandle_EditedMessageFinalizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orch.Handle(ctx, statEvent(5, "⏰ #N60. 4(A♠️2♥️9♦️) - 7(3♣️4♣️)")))
	assert.Equal(t, 0, f.ledger.Len())
	assert.Empty(t, f.rec.SentTo(adminID))

	ev := statEvent(5, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")
	ev.Kind = bus.KindEdited
	require.NoError(t, f.orch.Handle(ctx, ev))

	assert.Equal(t, 1, f.ledger.Len())
	assert.Contains(t, lastSent(t, f.rec, adminID), "(message finalisé)")
}

func TestHandle_IgnoresOtherChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev := statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")
	ev.ChatID = -999
	require.NoError(t, f.orch.Handle(ctx, ev))

	assert.Equal(t, 0, f.ledger.Len())
	assert.Empty(t, f.rec.Sent())
}

func TestHandle_PredictionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Import(ctx, []domain.Row{{Number: 881, WinnerText: "Banquier"}})
	require.NoError(t, err)

	// No markers: not recorded, but the game number launches #881
	require.NoError(t, f.orch.Handle(ctx, statEvent(10, "#N879. 5(K♠️2♣️) - 3(3♦️4♥️)")))

	shown := f.rec.SentTo(displayChan)
	require.Len(t, shown, 1)
	assert.Equal(t, display.Format(881, domain.WinnerBanker, domain.StatusNone), shown[0].Text)

	p, ok := f.catalog.Get("881")
	require.True(t, ok)
	assert.Equal(t, domain.PredictionLaunched, p.State)
	assert.Equal(t, domain.DisplayRef{ChatID: displayChan, MessageID: shown[0].MessageID}, p.Display)

	// Banker wins #881 on offset 0
	require.NoError(t, f.orch.Handle(ctx, statEvent(11, "#N881. 2(K♠️2♣️) - ✅7(3♦️4♥️9♣️)")))

	edits := f.rec.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, shown[0].MessageID, edits[0].MessageID)
	assert.Equal(t, display.Format(881, domain.WinnerBanker, domain.StatusSuccessAt0), edits[0].Text)

	p, _ = f.catalog.Get("881")
	assert.Equal(t, domain.PredictionVerified, p.State)
	assert.Equal(t, domain.StatusSuccessAt0, p.Status)
}

func TestHandle_OffsetOverflowFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Import(ctx, []domain.Row{{Number: 881, WinnerText: "Banquier"}})
	require.NoError(t, err)
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N880. 5(K♠️2♣️) - 3(3♦️4♥️)")))
	require.NoError(t, f.orch.Handle(ctx, statEvent(2, "#N884. 5(K♠️2♣️) - 3(3♦️4♥️)")))

	p, _ := f.catalog.Get("881")
	assert.Equal(t, domain.PredictionVerified, p.State)
	assert.Equal(t, domain.StatusFailure, p.Status)

	edits := f.rec.Edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, display.GlyphFailure)
}

func TestHandle_FailedDisplaySendStillLaunches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Import(ctx, []domain.Row{{Number: 881, WinnerText: "Joueur"}})
	require.NoError(t, err)

	f.rec.FailSend = true
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N879. 5(K♠️2♣️) - 3(3♦️4♥️)")))

	p, _ := f.catalog.Get("881")
	assert.Equal(t, domain.PredictionLaunched, p.State)
	assert.True(t, p.Display.IsZero())

	// Settling without a display message skips the edit
	f.rec.FailSend = false
	require.NoError(t, f.orch.Handle(ctx, statEvent(2, "#N881. ✅7(K♠️2♣️9♦️) - 2(3♦️4♦️)")))
	p, _ = f.catalog.Get("881")
	assert.Equal(t, domain.StatusSuccessAt0, p.Status)
	assert.Empty(t, f.rec.Edits())
}

func TestHandle_NoDisplayChannelSkipsPredictions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orch.settings.DisplayChannel = 0

	_, err := f.catalog.Import(ctx, []domain.Row{{Number: 881, WinnerText: "Banquier"}})
	require.NoError(t, err)
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N879. 5(K♠️2♣️) - 3(3♦️4♥️)")))

	p, _ := f.catalog.Get("881")
	assert.Equal(t, domain.PredictionPending, p.State)
}

func TestRelay_CopiesAndEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/start_transfer")))
	assert.True(t, f.orch.Settings().TransferEnabled)

	require.NoError(t, f.orch.Handle(ctx, statEvent(7, "⏰ #N10 en cours")))
	copyMsg := f.rec.SentTo(adminID)
	require.NotEmpty(t, copyMsg)
	last := copyMsg[len(copyMsg)-1]
	assert.Equal(t, relayHeader+"\n\n⏰ #N10 en cours", last.Text)

	edited := statEvent(7, "#N10 terminé")
	edited.Kind = bus.KindEdited
	require.NoError(t, f.orch.Handle(ctx, edited))
	edits := f.rec.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, last.MessageID, edits[0].MessageID)
	assert.Contains(t, edits[0].Text, relayEditedHeader)

	unknown := statEvent(99, "autre")
	unknown.Kind = bus.KindEdited
	require.NoError(t, f.orch.Handle(ctx, unknown))
	assert.Contains(t, lastSent(t, f.rec, adminID), relayNewHeader)

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/stop_transfer")))
	before := len(f.rec.SentTo(adminID))
	require.NoError(t, f.orch.Handle(ctx, statEvent(8, "texte")))
	assert.Len(t, f.rec.SentTo(adminID), before)
}

func TestCommands_RefuseNonAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev := adminEvent("/reset")
	ev.SenderID, ev.ChatID = 7, 7
	require.NoError(t, f.orch.Handle(ctx, ev))
	assert.Equal(t, refusalText, lastSent(t, f.rec, 7))

	ev.Text = "bonjour"
	require.NoError(t, f.orch.Handle(ctx, ev))
	assert.Len(t, f.rec.SentTo(7), 1)
}

func TestCommands_SetChannelPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/set_channel -100555")))
	assert.Equal(t, "✅ Canal de statistiques configuré: -100555", lastSent(t, f.rec, adminID))

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/set_display@mybot -100777")))
	saved, err := f.settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-100555), saved.StatChannel)
	assert.Equal(t, int64(-100777), saved.DisplayChannel)

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/set_display abc")))
	assert.Equal(t, "❌ Usage: /set_display <channel_id>", lastSent(t, f.rec, adminID))
}

func TestCommands_ResetConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")))

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/reset")))
	require.NoError(t, f.orch.Handle(ctx, adminEvent("non")))
	assert.Contains(t, lastSent(t, f.rec, adminID), "Remise à zéro annulée")
	assert.Equal(t, 1, f.ledger.Len())

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/reset")))
	require.NoError(t, f.orch.Handle(ctx, adminEvent("OUI")))
	assert.Equal(t, 0, f.ledger.Len())
	assert.Contains(t, lastSent(t, f.rec, adminID), "Remise à zéro effectuée")

	docs := f.rec.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "resultats_2024-05-13_00-59-00.xlsx", docs[0].Name)
	rows, err := spreadsheet.ReadXLSX(bytes.NewReader(docs[0].Data), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCommands_DocumentCancelsPendingReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")))

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, []domain.Row{
		{At: fixedNow, Number: 70, WinnerText: "Joueur"},
	}, nil))
	f.rec.AddFile("file-1", buf.Bytes())

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/reset")))

	ev := adminEvent("")
	ev.Kind = bus.KindDocument
	ev.Document = &bus.Document{FileID: "file-1", FileName: "predictions.xlsx"}
	require.NoError(t, f.orch.Handle(ctx, ev))
	assert.Contains(t, lastSent(t, f.rec, adminID), "Import Excel réussi")

	require.NoError(t, f.orch.Handle(ctx, adminEvent("OUI")))
	assert.Equal(t, 1, f.ledger.Len(), "OUI after an upload does not reset")
	assert.NotContains(t, lastSent(t, f.rec, adminID), "Remise à zéro effectuée")
}

func TestCommands_ExportAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")))

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/fichier")))
	docs := f.rec.Documents()
	require.Len(t, docs, 1)
	rows, err := spreadsheet.ReadXLSX(bytes.NewReader(docs[0].Data), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 60, rows[0].Number)

	_, err = f.catalog.Import(ctx, []domain.Row{{Number: 100, WinnerText: "B"}, {Number: 200, WinnerText: "P"}})
	require.NoError(t, err)
	require.NoError(t, f.orch.Handle(ctx, adminEvent("/stats_excel")))
	text := lastSent(t, f.rec, adminID)
	assert.Contains(t, text, "• Total: 2")
	assert.Contains(t, text, "• #100: Banquier")
	assert.Contains(t, text, "• #200: Joueur")

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/clear_excel")))
	assert.Equal(t, 0, f.catalog.Stats().Total)

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/status")))
	assert.Contains(t, lastSent(t, f.rec, adminID), "🔕 Désactivé")

	require.NoError(t, f.orch.Handle(ctx, adminEvent("/nope")))
	assert.Contains(t, lastSent(t, f.rec, adminID), "Commande inconnue")
}

func TestImportDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, []domain.Row{
		{At: fixedNow, Number: 10, WinnerText: "Banquier"},
		{At: fixedNow, Number: 11, WinnerText: "Joueur"},
		{At: fixedNow, Number: 12, WinnerText: "Joueur"},
		{At: fixedNow, Number: 15, WinnerText: "Banquier"},
	}, nil))
	f.rec.AddFile("file-1", buf.Bytes())

	ev := adminEvent("")
	ev.Kind = bus.KindDocument
	ev.Document = &bus.Document{FileID: "file-1", FileName: "predictions.xlsx"}
	require.NoError(t, f.orch.Handle(ctx, ev))

	text := lastSent(t, f.rec, adminID)
	assert.Contains(t, text, "Import Excel réussi")
	assert.Contains(t, text, "• Importées: 2")
	assert.Contains(t, text, "• Ignorées (consécutives): 2")
	assert.Equal(t, 2, f.catalog.Stats().Pending)

	ev.Document = &bus.Document{FileID: "file-2", FileName: "notes.txt", MimeType: "text/plain"}
	require.NoError(t, f.orch.Handle(ctx, ev))
	assert.Equal(t, "❌ Veuillez envoyer un fichier Excel (.xlsx)", lastSent(t, f.rec, adminID))
}

func TestChannelJoinedInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orch.Handle(ctx, bus.Event{Kind: bus.KindChannelJoined, ChatID: -100123, ChatTitle: "Résultats"}))
	text := lastSent(t, f.rec, adminID)
	assert.Contains(t, text, "Nouveau canal détecté")
	assert.Contains(t, text, "/set_channel -100123")
}

func TestRollover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 60 and 62 survive the consecutive rule in the ledger
	require.NoError(t, f.orch.Handle(ctx, statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")))
	require.NoError(t, f.orch.Handle(ctx, statEvent(2, "#N62. 2(K♠️2♣️) - ✅7(3♦️4♥️9♣️)")))
	require.Equal(t, 2, f.ledger.Len())

	res, err := f.orch.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Exported)
	assert.Equal(t, 2, res.Imported)

	day := fixedNow.Add(-24 * time.Hour)
	assert.Equal(t, idhash.RolloverBatchID(day, 2), res.BatchID)

	docs := f.rec.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "resultats_journee_12-05-2024.xlsx", docs[0].Name)
	assert.Contains(t, docs[0].Caption, "Rapport Journalier du 12/05/2024")

	archived, err := f.archive.GetByTimeRange(ctx, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	assert.Equal(t, 0, f.ledger.Len())
	assert.Equal(t, 2, f.catalog.Stats().Pending)
	assert.Contains(t, lastSent(t, f.rec, adminID), "Remise à zéro effectuée à 00h59")
	assert.False(t, f.orch.Status().LastRollover.IsZero())
}

func TestRollover_EmptyDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exported)
	assert.Empty(t, res.BatchID)
	assert.Empty(t, f.rec.Documents())

	msgs := f.rec.SentTo(adminID)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Aucune partie enregistrée aujourd'hui")
}

func TestRun_StopsOnClosedStream(t *testing.T) {
	f := newFixture(t)
	events := make(chan bus.Event, 2)
	events <- statEvent(1, "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)")
	events <- adminEvent("/fichier")
	close(events)

	require.NoError(t, f.orch.Run(context.Background(), events))
	assert.Equal(t, 1, f.ledger.Len())
	assert.Len(t, f.rec.Documents(), 1)
}
