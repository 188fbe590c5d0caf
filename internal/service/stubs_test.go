package service

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fonnet/fonnetapp/internal/mail"
	"github.com/fonnet/fonnetapp/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProjects struct {
	projects map[string]*model.Project
}

func newStubProjects(ids ...string) *stubProjects {
	s := &stubProjects{projects: map[string]*model.Project{}}
	for _, id := range ids {
		s.projects[id] = &model.Project{ID: id, Name: id}
	}
	return s
}

func (s *stubProjects) Create(_ context.Context, p *model.Project) error {
	s.projects[p.ID] = p
	return nil
}

func (s *stubProjects) GetByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, model.ErrProjectNotFound
	}
	return p, nil
}

func (s *stubProjects) List(context.Context) ([]model.Project, error) {
	out := []model.Project{}
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

// stubTasks keeps tasks in memory and records every reorder update issued.
type stubTasks struct {
	mu           sync.Mutex
	tasks        map[string]model.Task
	orderUpdates []model.OrderUpdate
	failUpdate   error
}

func newStubTasks(tasks ...model.Task) *stubTasks {
	s := &stubTasks{tasks: map[string]model.Task{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *stubTasks) ListByProject(_ context.Context, projectID string) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Task{}
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		return cmp.Or(
			cmp.Compare(a.DepthLevel, b.DepthLevel),
			cmp.Compare(a.OrderIndex, b.OrderIndex),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (s *stubTasks) GetByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	return &t, nil
}

func (s *stubTasks) Create(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = *t
	return nil
}

func (s *stubTasks) Update(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdate != nil {
		return s.failUpdate
	}
	if _, ok := s.tasks[t.ID]; !ok {
		return model.ErrTaskNotFound
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *stubTasks) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return model.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *stubTasks) UpdateOrder(_ context.Context, projectID string, updates []model.OrderUpdate, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		s.orderUpdates = append(s.orderUpdates, u)
		t := s.tasks[u.ID]
		if t.ProjectID == projectID {
			t.OrderIndex = u.OrderIndex
			t.UpdatedAt = at
			s.tasks[u.ID] = t
		}
	}
	return nil
}

func (s *stubTasks) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type stubComments struct {
	comments map[string]*model.Comment
}

func newStubComments() *stubComments {
	return &stubComments{comments: map[string]*model.Comment{}}
}

func (s *stubComments) Create(_ context.Context, c *model.Comment) error {
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *stubComments) GetByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubComments) ListByProject(_ context.Context, projectID string) ([]model.Comment, error) {
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubComments) UpdateContent(_ context.Context, c *model.Comment) error {
	if _, ok := s.comments[c.ID]; !ok {
		return model.ErrCommentNotFound
	}
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *stubComments) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return model.ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

type stubProviders struct {
	providers     map[string]*model.Provider
	invoices      []model.Invoice
	failInvoiceAt error
}

func newStubProviders(providers ...*model.Provider) *stubProviders {
	s := &stubProviders{providers: map[string]*model.Provider{}}
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	return s
}

func (s *stubProviders) Create(_ context.Context, p *model.Provider) error {
	s.providers[p.ID] = p
	return nil
}

func (s *stubProviders) GetByID(_ context.Context, id string) (*model.Provider, error) {
	p, ok := s.providers[id]
	if !ok {
		return nil, model.ErrProviderNotFound
	}
	return p, nil
}

func (s *stubProviders) List(context.Context) ([]model.Provider, error) {
	out := []model.Provider{}
	for _, p := range s.providers {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProviders) CreateInvoice(_ context.Context, inv *model.Invoice) error {
	if s.failInvoiceAt != nil {
		return s.failInvoiceAt
	}
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *stubProviders) ListInvoices(_ context.Context, providerID string) ([]model.Invoice, error) {
	out := []model.Invoice{}
	for _, inv := range s.invoices {
		if inv.ProviderID == providerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type recordingMailer struct {
	sent []mail.Message
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail {
		return errors.New("relay down")
	}
	m.sent = append(m.sent, msg)
	return nil
}
