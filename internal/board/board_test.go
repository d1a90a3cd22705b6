package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/store"
)

type fakeBackend struct {
	transitions []model.Status
	deleted     []string
	err         error
}

func (f *fakeBackend) Transition(_ context.Context, id string, to model.Status) (model.Application, error) {
	if f.err != nil {
		return model.Application{}, f.err
	}
	f.transitions = append(f.transitions, to)
	return model.Application{ID: id, Company: "Acme", Position: "Engineer", Status: to}, nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleApps() []model.Application {
	return []model.Application{
		{ID: "a1", Company: "Acme", Position: "Engineer", Status: model.StatusApplied, Link: "https://example.com/a1"},
		{ID: "a2", Company: "Globex", Position: "SRE", Status: model.StatusInterview},
	}
}

func newTestModel(b Backend) boardModel {
	m := newBoardModel(sampleApps(), b)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(boardModel)
}

// press sends a key and runs any resulting command synchronously, feeding its message back.
func press(t *testing.T, m boardModel, key string) boardModel {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	m = updated.(boardModel)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, quit := msg.(tea.QuitMsg); !quit {
				updated, _ = m.Update(msg)
				m = updated.(boardModel)
			}
		}
	}
	return m
}

func TestBoard_CursorMovesAndClamps(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	m = press(t, m, "down")
	m = press(t, m, "down")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (clamped)", m.cursor)
	}
	m = press(t, m, "up")
	m = press(t, m, "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestBoard_StatusKeyTransitions(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)

	m = press(t, m, "2")

	if len(b.transitions) != 1 || b.transitions[0] != model.StatusInterview {
		t.Fatalf("transitions = %v, want [interview]", b.transitions)
	}
	if m.apps[0].Status != model.StatusInterview {
		t.Errorf("row status = %q, want interview", m.apps[0].Status)
	}
	if m.notice != lifecycle.Message(model.StatusInterview) {
		t.Errorf("notice = %q", m.notice)
	}
	if m.busy {
		t.Error("busy should be cleared after completion")
	}
}

func TestBoard_SameStatusKeyIsNoop(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)

	m = press(t, m, "1")

	if len(b.transitions) != 0 {
		t.Errorf("transitions = %v, want none", b.transitions)
	}
}

func TestBoard_TransitionErrorShown(t *testing.T) {
	b := &fakeBackend{err: errors.New("backend down")}
	m := newTestModel(b)

	m = press(t, m, "4")

	if !strings.Contains(m.errMsg, "backend down") {
		t.Errorf("errMsg = %q, want backend error", m.errMsg)
	}
	if m.apps[0].Status != model.StatusApplied {
		t.Errorf("row status changed on failure: %q", m.apps[0].Status)
	}
}

func TestBoard_DeleteNeedsConfirmation(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)

	m = press(t, m, "d")
	m = press(t, m, "n")
	if len(b.deleted) != 0 || len(m.apps) != 2 {
		t.Fatalf("delete ran without confirmation")
	}

	m = press(t, m, "d")
	m = press(t, m, "y")
	if len(b.deleted) != 1 || b.deleted[0] != "a1" {
		t.Fatalf("deleted = %v, want [a1]", b.deleted)
	}
	if len(m.apps) != 1 || m.apps[0].ID != "a2" {
		t.Errorf("apps after delete = %+v", m.apps)
	}
}

func TestBoard_DeleteLastRowClampsCursor(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m = press(t, m, "down")
	m = press(t, m, "d")
	m = press(t, m, "y")

	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestBoard_OpenLink(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	var opened []string
	m.openFn = func(url string) { opened = append(opened, url) }

	m = press(t, m, "o")
	m = press(t, m, "down")
	m = press(t, m, "o") // a2 has no link

	if len(opened) != 1 || opened[0] != "https://example.com/a1" {
		t.Errorf("opened = %v", opened)
	}
}

func TestBoard_DetailViewToggle(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	m = press(t, m, "enter")
	if m.view != viewDetail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(m.View(), "Application") {
		t.Error("detail view missing title")
	}
	m = press(t, m, "esc")
	if m.view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestBoard_EmptyList(t *testing.T) {
	b := &fakeBackend{}
	m := newBoardModel(nil, b)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = updated.(boardModel)

	m = press(t, m, "2")
	m = press(t, m, "d")
	m = press(t, m, "enter")

	if len(b.transitions) != 0 || m.deleting || m.view != viewList {
		t.Error("actions on an empty board should be no-ops")
	}
	if !strings.Contains(m.View(), "no applications yet") {
		t.Error("empty board should say so")
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}

func TestPicker_StartsOnCurrentStatus(t *testing.T) {
	m := newPickerModel(model.Application{Position: "SRE", Company: "Globex", Status: model.StatusOffer})
	if model.Statuses[m.cursor] != model.StatusOffer {
		t.Fatalf("cursor on %q, want offer", model.Statuses[m.cursor])
	}

	updated, _ := m.Update(keyMsg("up"))
	updated, _ = updated.Update(keyMsg("enter"))
	if got := updated.(pickerModel).selected; got != model.StatusInterview {
		t.Errorf("selected = %q, want interview", got)
	}
}

func TestPicker_NumberKeyChoosesDirectly(t *testing.T) {
	m := newPickerModel(model.Application{Status: model.StatusApplied})

	updated, cmd := m.Update(keyMsg("4"))
	if got := updated.(pickerModel).selected; got != model.StatusRejected {
		t.Errorf("selected = %q, want rejected", got)
	}
	if cmd == nil {
		t.Error("choosing should quit the picker")
	}
}

func TestPicker_PreviewsMessage(t *testing.T) {
	m := newPickerModel(model.Application{Status: model.StatusApplied})
	updated, _ := m.Update(keyMsg("down"))

	if !strings.Contains(updated.View(), "Congratulations on getting an interview") {
		t.Error("picker should preview the interview message")
	}
}

func TestPicker_Quit(t *testing.T) {
	m := newPickerModel(model.Application{Status: model.StatusApplied})
	updated, _ := m.Update(keyMsg("q"))
	final := updated.(pickerModel)
	if !final.quit || final.selected != "" {
		t.Error("q should cancel without a selection")
	}
}

func TestLoader_ReportsFetchResult(t *testing.T) {
	want := sampleApps()
	m := newLoaderModel("applications", func(context.Context) ([]model.Application, error) {
		return want, nil
	})

	updated, _ := m.Update(loadedMsg{apps: want})
	final := updated.(loaderModel)
	if !final.done || len(final.apps) != 2 || final.err != nil {
		t.Errorf("loader = %+v", final)
	}
	if final.View() != "" {
		t.Error("finished loader should render nothing")
	}
}

func TestLoader_CtrlCCancels(t *testing.T) {
	m := newLoaderModel("applications", nil)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !errors.Is(updated.(loaderModel).err, errLoadCancelled) {
		t.Error("ctrl+c should cancel the load")
	}
}

func TestService_ScopesToUser(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "jobber.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	apps := db.Applications()
	ctx := context.Background()

	mine, err := apps.Insert(ctx, model.Application{UserID: "u1", Company: "Acme", Position: "Engineer"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := apps.Insert(ctx, model.Application{UserID: "u2", Company: "Globex", Position: "SRE"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(apps, lifecycle.NewManager(apps, nil, logger), "u1")

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("List = %+v, want only u1's application", list)
	}

	got, err := svc.Transition(ctx, mine.ID, model.StatusOffer)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Status != model.StatusOffer {
		t.Errorf("status = %q, want offer", got.Status)
	}

	if err := svc.Delete(ctx, mine.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := apps.Get(ctx, "u1", mine.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
}
