package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/config"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/manifest"
	"github.com/geerteltink/mezzio-skeleton/internal/preview"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

func TestInit_SeedsAndResumes(t *testing.T) {
	env := newTestEnv(t)
	root := filepath.Join(t.TempDir(), "app")

	first, err := env.engine.Init(context.Background(), &InitRequest{Root: root})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if first.Resumed {
		t.Error("first Init should not resume")
	}
	if len(first.Seeded) == 0 {
		t.Error("expected skeleton files to be seeded")
	}
	if first.Phase != state.PhaseUninitialized {
		t.Errorf("Phase = %q, want %q", first.Phase, state.PhaseUninitialized)
	}
	if !fileExists(t, root, "composer.json") || !fileExists(t, root, "config/config.php") {
		t.Fatal("skeleton was not seeded")
	}

	second, err := env.engine.Init(context.Background(), &InitRequest{Root: root})
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if !second.Resumed {
		t.Error("second Init should resume")
	}
	if second.SessionID != first.SessionID {
		t.Errorf("SessionID changed: %s != %s", second.SessionID, first.SessionID)
	}
}

func TestInit_ExistingProject(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unmanageable project", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "composer.json", "{}\n")

		_, err := env.engine.Init(context.Background(), &InitRequest{Root: root})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation without config aggregator, got %v", err)
		}
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := env.engine.Init(context.Background(), &InitRequest{})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestProcessAnswer_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	err := env.tryAnswer(t.TempDir(), catalog.QuestionInstallType, "flat")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Every valid option is accepted and contributes exactly one provider line.
func TestProcessAnswer_EveryOption(t *testing.T) {
	cat := catalog.MustDefault()

	for _, q := range cat.Questions() {
		for _, opt := range q.Options {
			q, opt := q, opt
			t.Run(fmt.Sprintf("%s=%s", q.ID, opt.Code), func(t *testing.T) {
				env := newTestEnv(t)
				root := env.newProject(t)
				session := env.engine.Session(root)
				ctx := context.Background()

				if q.ID != catalog.QuestionInstallType {
					if ok, err := session.ProcessAnswer(ctx, catalog.QuestionInstallType, "flat"); !ok {
						t.Fatalf("install-type failed: %v", err)
					}
				}
				if q.ID == catalog.QuestionTemplateEngine {
					if ok, err := session.ProcessAnswer(ctx, catalog.QuestionContainer, "3"); !ok {
						t.Fatalf("container failed: %v", err)
					}
				}

				ok, err := session.ProcessAnswer(ctx, q.ID, opt.Code)
				if !ok || err != nil {
					t.Fatalf("ProcessAnswer(%s, %q) = %v, %v", q.ID, opt.Code, ok, err)
				}
				if opt.Provider != "" {
					if n := providerLines(t, root, opt.Provider); n != 1 {
						t.Errorf("provider %s listed %d times, want 1", opt.Provider, n)
					}
				}

				data := readFile(t, root, manifest.FileName)
				for _, pkg := range opt.Require {
					if !strings.Contains(data, `"`+pkg.Name+`": "`+pkg.Version+`"`) {
						t.Errorf("composer.json does not require %s", pkg.Name)
					}
				}
			})
		}
	}
}

func TestProcessAnswer_OverwriteLeavesOneLine(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")

	routers, _ := catalog.MustDefault().OptionsFor(catalog.QuestionRouter)
	for _, current := range routers {
		result := env.answer(t, root, catalog.QuestionRouter, current.Code)

		for _, other := range routers {
			want := 0
			if other.Code == current.Code {
				want = 1
			}
			if n := providerLines(t, root, other.Provider); n != want {
				t.Errorf("after router %s: %s listed %d times, want %d", current.Code, other.Provider, n, want)
			}
		}

		composer := readFile(t, root, manifest.FileName)
		for _, other := range routers {
			has := strings.Contains(composer, other.Require[0].Name)
			if has != (other.Code == current.Code) {
				t.Errorf("after router %s: composer.json requires %s = %v", current.Code, other.Require[0].Name, has)
			}
		}
		if current.Code != routers[0].Code && result.Replaced == "" {
			t.Errorf("expected Replaced to be set after router %s", current.Code)
		}
	}

	st := env.status(t, root)
	if len(st.Providers) != 1 || st.Providers[0] != routers[len(routers)-1].Provider {
		t.Errorf("Providers = %v", st.Providers)
	}
}

func TestProcessAnswer_SameCodeIsNoop(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionRouter, "2")
	before := snapshot(t, root)

	result := env.answer(t, root, catalog.QuestionRouter, "2")
	if len(result.Written) != 0 || len(result.Removed) != 0 {
		t.Errorf("expected no changes, got written=%v removed=%v", result.Written, result.Removed)
	}
	assertSnapshot(t, root, before)
}

func TestProcessAnswer_RejectedAnswersChangeNothing(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionContainer, "1")

	tests := []struct {
		name     string
		question catalog.QuestionID
		code     string
		wantErr  error
	}{
		{name: "unknown code", question: catalog.QuestionRouter, code: "9", wantErr: ErrInvalidOption},
		{name: "none is not a router", question: catalog.QuestionRouter, code: "n", wantErr: ErrInvalidOption},
		{name: "unknown question", question: "database", code: "1", wantErr: ErrUnknownQuestion},
		{name: "laminas-view without servicemanager", question: catalog.QuestionTemplateEngine, code: "3", wantErr: ErrIncompatibleSelection},
		{name: "layout after container", question: catalog.QuestionInstallType, code: "modular", wantErr: ErrOrderViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := snapshot(t, root)
			beforeStatus := env.status(t, root)

			err := env.tryAnswer(root, tt.question, tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsRecoverable(err) {
				t.Errorf("%v should be recoverable", err)
			}

			assertSnapshot(t, root, before)
			after := env.status(t, root)
			if len(after.Answers) != len(beforeStatus.Answers) || after.Broken {
				t.Errorf("session changed: %+v", after)
			}
		})
	}
}

func TestProcessAnswer_IncompatibleThenCompatible(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionContainer, "1")

	if err := env.tryAnswer(root, catalog.QuestionTemplateEngine, "3"); !errors.Is(err, ErrIncompatibleSelection) {
		t.Fatalf("expected ErrIncompatibleSelection, got %v", err)
	}

	env.answer(t, root, catalog.QuestionContainer, "3")
	env.answer(t, root, catalog.QuestionTemplateEngine, "3")

	// The renderer now pins the container
	if err := env.tryAnswer(root, catalog.QuestionContainer, "1"); !errors.Is(err, ErrIncompatibleSelection) {
		t.Errorf("expected ErrIncompatibleSelection when moving away from servicemanager, got %v", err)
	}
}

func TestProcessAnswer_Order(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)

	if err := env.tryAnswer(root, catalog.QuestionContainer, "3"); !errors.Is(err, ErrOrderViolation) {
		t.Fatalf("expected ErrOrderViolation before install-type, got %v", err)
	}

	// Layout may change while nothing else is answered
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	if !fileExists(t, root, "src/App/ConfigProvider.php") {
		t.Fatal("flat layout did not write src/App/ConfigProvider.php")
	}
	env.answer(t, root, catalog.QuestionInstallType, "modular")
	if fileExists(t, root, "src/App/ConfigProvider.php") {
		t.Error("flat config provider left behind after switching layout")
	}
	if !fileExists(t, root, "src/App/src/ConfigProvider.php") {
		t.Error("modular layout did not write src/App/src/ConfigProvider.php")
	}
	if !strings.Contains(readFile(t, root, manifest.FileName), `"App\\": "src/App/src/"`) {
		t.Error("autoload does not point at the modular source directory")
	}

	st := env.status(t, root)
	if st.Layout != catalog.LayoutModular || st.Phase != state.PhaseLayoutChosen {
		t.Errorf("Layout = %q, Phase = %q", st.Layout, st.Phase)
	}

	env.answer(t, root, catalog.QuestionRouter, "2")
	if err := env.tryAnswer(root, catalog.QuestionInstallType, "flat"); !errors.Is(err, ErrOrderViolation) {
		t.Errorf("expected ErrOrderViolation after router, got %v", err)
	}
}

func TestProcessAnswer_DryRun(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	before := snapshot(t, root)

	result, err := env.engine.ProcessAnswer(context.Background(), &AnswerRequest{
		Root:     root,
		Question: catalog.QuestionContainer,
		Code:     "3",
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if len(result.Plan.Operations) == 0 {
		t.Error("expected planned operations")
	}
	assertSnapshot(t, root, before)

	if st := env.status(t, root); len(st.Answers) != 1 {
		t.Errorf("dry run recorded an answer: %+v", st.Answers)
	}
}

func TestEndToEnd_Flat(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)

	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionContainer, "3")
	env.answer(t, root, catalog.QuestionRouter, "2")
	env.answer(t, root, catalog.QuestionTemplateEngine, "3")

	router := option(t, catalog.QuestionRouter, "2")
	renderer := option(t, catalog.QuestionTemplateEngine, "3")
	want := "new ConfigAggregator([\n" +
		"    " + router.Provider + "::class,\n" +
		"    " + renderer.Provider + "::class,\n" +
		"    \\Laminas\\HttpHandlerRunner\\ConfigProvider::class,\n"
	if content := readFile(t, root, "config/config.php"); !strings.Contains(content, want) {
		t.Errorf("providers not inserted in call order:\n%s", content)
	}

	for _, rel := range []string{"config/container.php", "src/App/ConfigProvider.php", "templates/app/home-page.phtml"} {
		if !fileExists(t, root, rel) {
			t.Errorf("%s was not written", rel)
		}
	}

	w := httptest.NewRecorder()
	preview.NewHandler(root, env.engine.Catalog()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("home page status = %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	container := option(t, catalog.QuestionContainer, "3")
	for _, s := range []string{container.Name, container.Docs, router.Name, router.Docs} {
		if !strings.Contains(body, s) {
			t.Errorf("home page does not mention %q", s)
		}
	}

	st := env.status(t, root)
	if len(st.Pending) != 1 || st.Pending[0] != catalog.QuestionErrorHandler {
		t.Errorf("Pending = %v", st.Pending)
	}
	if st.Phase != state.PhaseAnswering {
		t.Errorf("Phase = %q", st.Phase)
	}
}

func TestEndToEnd_Modular(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)

	env.answer(t, root, catalog.QuestionInstallType, "modular")
	env.answer(t, root, catalog.QuestionContainer, "1")
	env.answer(t, root, catalog.QuestionRouter, "2")
	env.answer(t, root, catalog.QuestionErrorHandler, "1")

	if !fileExists(t, root, "config/autoload/development.local.php.dist") {
		t.Error("whoops development config was not written")
	}
	if !strings.Contains(readFile(t, root, manifest.FileName), `"filp/whoops"`) {
		t.Error("whoops was not added to require-dev")
	}

	w := httptest.NewRecorder()
	preview.NewHandler(root, env.engine.Catalog()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("home page status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want JSON without a renderer", ct)
	}
	body := w.Body.String()
	for _, s := range []string{`"containerName":"Aura.Di"`, `"routerName":"FastRoute"`, `"routerDocs":"https://github.com/nikic/FastRoute"`} {
		if !strings.Contains(body, s) {
			t.Errorf("home page JSON missing %s: %s", s, body)
		}
	}
}

func TestProcessAnswer_Conflict(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	writeFile(t, root, "config/container.php", "<?php // custom\n")
	before := snapshot(t, root)

	result, err := env.engine.ProcessAnswer(context.Background(), &AnswerRequest{
		Root:     root,
		Question: catalog.QuestionContainer,
		Code:     "3",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if !IsRecoverable(err) {
		t.Error("conflicts should be recoverable")
	}
	if result == nil || len(result.Plan.Conflicts) != 1 || result.Plan.Conflicts[0].Path != "config/container.php" {
		t.Fatalf("unexpected conflicts: %+v", result)
	}
	assertSnapshot(t, root, before)

	_, err = env.engine.ProcessAnswer(context.Background(), &AnswerRequest{
		Root:     root,
		Question: catalog.QuestionContainer,
		Code:     "3",
		Force:    true,
	})
	if err != nil {
		t.Fatalf("forced answer failed: %v", err)
	}
	if strings.Contains(readFile(t, root, "config/container.php"), "custom") {
		t.Error("forced answer did not overwrite the container bootstrap")
	}

	// The file is now owned by the container answer
	env.answer(t, root, catalog.QuestionContainer, "2")

	if _, err := env.engine.Reset(context.Background(), &ResetRequest{Root: root, Revert: true}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if got := readFile(t, root, "config/container.php"); got != "<?php // custom\n" {
		t.Errorf("revert did not restore the overwritten file: %q", got)
	}
}

func TestProcessAnswer_ProviderAlreadyListed(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")

	// The project wires FastRoute itself, outside the managed block
	router := option(t, catalog.QuestionRouter, "2")
	content := readFile(t, root, "config/config.php")
	anchor := "    \\Mezzio\\ConfigProvider::class,\n"
	if !strings.Contains(content, anchor) {
		t.Fatalf("seed aggregator has no %q line", anchor)
	}
	writeFile(t, root, "config/config.php",
		strings.Replace(content, anchor, anchor+"    \\"+router.Provider+"::class,\n", 1))
	before := snapshot(t, root)

	for _, force := range []bool{false, true} {
		result, err := env.engine.ProcessAnswer(context.Background(), &AnswerRequest{
			Root:     root,
			Question: catalog.QuestionRouter,
			Code:     "2",
			Force:    force,
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("force=%v: expected ErrConflict, got %v", force, err)
		}
		if !IsRecoverable(err) {
			t.Errorf("force=%v: an already listed provider should be recoverable", force)
		}
		if result == nil || len(result.Plan.Conflicts) != 1 || result.Plan.Conflicts[0].Path != "config/config.php" {
			t.Fatalf("force=%v: unexpected conflicts: %+v", force, result)
		}
	}

	assertSnapshot(t, root, before)
	if st := env.status(t, root); st.Broken || len(st.Answers) != 1 {
		t.Fatalf("session changed: broken=%v answers=%d", st.Broken, len(st.Answers))
	}

	// Another router is still accepted
	env.answer(t, root, catalog.QuestionRouter, "1")
	if n := providerLines(t, root, option(t, catalog.QuestionRouter, "1").Provider); n != 1 {
		t.Errorf("expected one aura router line, got %d", n)
	}
}

func TestProcessAnswer_DriftBreaksSession(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionContainer, "3")

	writeFile(t, root, "config/container.php", "<?php // edited by hand\n")

	st := env.status(t, root)
	if len(st.Drifted) != 1 || st.Drifted[0] != "config/container.php" {
		t.Errorf("Drifted = %v", st.Drifted)
	}

	err := env.tryAnswer(root, catalog.QuestionContainer, "2")
	if !errors.Is(err, ErrStateDrift) {
		t.Fatalf("expected ErrStateDrift, got %v", err)
	}
	if IsRecoverable(err) {
		t.Error("state drift must not be recoverable")
	}
	if got := readFile(t, root, "config/container.php"); got != "<?php // edited by hand\n" {
		t.Error("failed answer modified the tree")
	}

	st = env.status(t, root)
	if !st.Broken || st.BrokenReason == "" {
		t.Errorf("session not marked broken: %+v", st)
	}

	if err := env.tryAnswer(root, catalog.QuestionRouter, "2"); !errors.Is(err, ErrSessionBroken) {
		t.Errorf("expected ErrSessionBroken, got %v", err)
	}
	if _, err := env.engine.Reset(context.Background(), &ResetRequest{Root: root, Revert: true}); !errors.Is(err, ErrSessionBroken) {
		t.Errorf("expected revert of a broken session to fail, got %v", err)
	}
	if _, err := env.engine.Reset(context.Background(), &ResetRequest{Root: root}); err != nil {
		t.Errorf("Reset without revert failed: %v", err)
	}
}

func TestProcessAnswer_IOFailureBreaksSession(t *testing.T) {
	paths := config.PathsAt(t.TempDir())
	fs := &failingFS{FS: fsops.NewRealFS()}
	env := newTestEnvAt(t, paths, fs)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	before := snapshot(t, root)

	fs.arm("/composer.json")
	err := env.tryAnswer(root, catalog.QuestionContainer, "3")
	if !errors.Is(err, ErrIOFailure) {
		t.Fatalf("expected ErrIOFailure, got %v", err)
	}
	if IsRecoverable(err) {
		t.Error("io failures must not be recoverable")
	}
	assertSnapshot(t, root, before)

	if st := env.status(t, root); !st.Broken {
		t.Error("session not marked broken")
	}
	if err := env.tryAnswer(root, catalog.QuestionRouter, "2"); !errors.Is(err, ErrSessionBroken) {
		t.Errorf("expected ErrSessionBroken, got %v", err)
	}
}

func TestProcessAnswer_DuplicateInsertion(t *testing.T) {
	env := newTestEnv(t)
	root := env.newProject(t)
	env.answer(t, root, catalog.QuestionInstallType, "flat")
	env.answer(t, root, catalog.QuestionRouter, "2")

	// Remove the managed provider line by hand
	router := option(t, catalog.QuestionRouter, "2")
	content := readFile(t, root, "config/config.php")
	writeFile(t, root, "config/config.php", strings.Replace(content, "\n    "+router.Provider+"::class,", "", 1))

	err := env.tryAnswer(root, catalog.QuestionRouter, "1")
	if !errors.Is(err, ErrDuplicateInsertion) {
		t.Fatalf("expected ErrDuplicateInsertion, got %v", err)
	}
	if st := env.status(t, root); !st.Broken {
		t.Error("session not marked broken")
	}
}

func TestSession_SurvivesRestart(t *testing.T) {
	paths := config.PathsAt(t.TempDir())
	first := newTestEnvAt(t, paths, fsops.NewRealFS())
	root := first.newProject(t)
	first.answer(t, root, catalog.QuestionInstallType, "flat")
	first.answer(t, root, catalog.QuestionContainer, "3")

	second := newTestEnvAt(t, paths, fsops.NewRealFS())
	resumed, err := second.engine.Init(context.Background(), &InitRequest{Root: root})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !resumed.Resumed {
		t.Error("expected the session to resume")
	}

	st := second.status(t, root)
	if len(st.Answers) != 2 || st.Answers[1].Name != "Laminas Servicemanager" {
		t.Errorf("Answers = %+v", st.Answers)
	}

	second.answer(t, root, catalog.QuestionRouter, "1")
	second.answer(t, root, catalog.QuestionRouter, "2")
	if n := providerLines(t, root, option(t, catalog.QuestionRouter, "2").Provider); n != 1 {
		t.Errorf("router provider listed %d times", n)
	}
}

func TestProcessAnswer_Concurrency(t *testing.T) {
	t.Run("same root is serialized", func(t *testing.T) {
		env := newTestEnv(t)
		root := env.newProject(t)
		env.answer(t, root, catalog.QuestionInstallType, "flat")

		codes := []string{"1", "2", "3", "1", "2", "3"}
		var wg sync.WaitGroup
		errs := make(chan error, len(codes))
		for _, code := range codes {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				errs <- env.tryAnswer(root, catalog.QuestionRouter, code)
			}(code)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Errorf("concurrent answer failed: %v", err)
			}
		}

		st := env.status(t, root)
		if len(st.Providers) != 1 {
			t.Fatalf("Providers = %v", st.Providers)
		}
		routers, _ := catalog.MustDefault().OptionsFor(catalog.QuestionRouter)
		total := 0
		for _, r := range routers {
			total += providerLines(t, root, r.Provider)
		}
		if total != 1 || providerLines(t, root, st.Providers[0]) != 1 {
			t.Errorf("aggregator lists %d router providers, session has %v", total, st.Providers)
		}
	})

	t.Run("distinct roots run in parallel", func(t *testing.T) {
		env := newTestEnv(t)
		roots := make([]string, 4)
		for i := range roots {
			roots[i] = env.newProject(t)
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(roots))
		for _, root := range roots {
			wg.Add(1)
			go func(root string) {
				defer wg.Done()
				for _, a := range []struct {
					q    catalog.QuestionID
					code string
				}{
					{catalog.QuestionInstallType, "modular"},
					{catalog.QuestionContainer, "3"},
					{catalog.QuestionRouter, "2"},
					{catalog.QuestionTemplateEngine, "1"},
				} {
					if err := env.tryAnswer(root, a.q, a.code); err != nil {
						errs <- err
						return
					}
				}
			}(root)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("parallel session failed: %v", err)
		}

		for _, root := range roots {
			if st := env.status(t, root); len(st.Answers) != 4 || len(st.Providers) != 2 {
				t.Errorf("%s: answers=%d providers=%v", root, len(st.Answers), st.Providers)
			}
		}
	})
}
