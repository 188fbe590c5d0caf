package service

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/fonnet/fonnetapp/internal/auth"
	"github.com/fonnet/fonnetapp/internal/model"
)

func newProjectService(comments *stubComments, projectIDs ...string) *ProjectService {
	return NewProjectService(newStubProjects(projectIDs...), comments, discardLogger(), WithClock(fixedClock))
}

func TestCreateProject(t *testing.T) {
	is := is.New(t)
	svc := newProjectService(newStubComments())

	_, err := svc.CreateProject(context.Background(), &model.CreateProjectRequest{Name: "Launch"})
	is.True(errors.Is(err, model.ErrUnauthenticated))

	_, err = svc.CreateProject(signedIn(), &model.CreateProjectRequest{Name: " "})
	is.True(errors.Is(err, model.ErrNameRequired))

	p, err := svc.CreateProject(signedIn(), &model.CreateProjectRequest{Name: " Launch "})
	is.NoErr(err)
	is.Equal(p.Name, "Launch")
	is.Equal(p.CreatedBy, "user-1")

	got, err := svc.GetProject(signedIn(), p.ID)
	is.NoErr(err)
	is.Equal(got.ID, p.ID)
}

func TestCreateComment(t *testing.T) {
	is := is.New(t)
	comments := newStubComments()
	svc := newProjectService(comments, "p1")

	_, err := svc.CreateComment(context.Background(), "p1", &model.CommentRequest{Content: "hi"})
	is.True(errors.Is(err, model.ErrUnauthenticated))

	_, err = svc.CreateComment(signedIn(), "p1", &model.CommentRequest{Content: "  "})
	is.True(errors.Is(err, model.ErrContentRequired))

	_, err = svc.CreateComment(signedIn(), "nope", &model.CommentRequest{Content: "hi"})
	is.True(errors.Is(err, model.ErrProjectNotFound))

	c, err := svc.CreateComment(signedIn(), "p1", &model.CommentRequest{Content: "Looks good"})
	is.NoErr(err)
	is.Equal(c.UserID, "user-1")
	is.Equal(c.ProjectID, "p1")

	list, err := svc.ListComments(signedIn(), "p1")
	is.NoErr(err)
	is.Equal(len(list), 1)
}

func TestCommentAuthorOnly(t *testing.T) {
	is := is.New(t)
	comments := newStubComments()
	svc := newProjectService(comments, "p1")
	other := auth.WithActor(context.Background(), "user-2")

	c, err := svc.CreateComment(signedIn(), "p1", &model.CommentRequest{Content: "draft"})
	is.NoErr(err)

	_, err = svc.UpdateComment(other, c.ID, &model.CommentRequest{Content: "hijack"})
	is.True(errors.Is(err, model.ErrForbidden))
	is.True(errors.Is(svc.DeleteComment(other, c.ID), model.ErrForbidden))
	is.True(errors.Is(svc.DeleteComment(context.Background(), c.ID), model.ErrUnauthenticated))

	stored, _ := comments.GetByID(context.Background(), c.ID)
	is.Equal(stored.Content, "draft")

	updated, err := svc.UpdateComment(signedIn(), c.ID, &model.CommentRequest{Content: "final"})
	is.NoErr(err)
	is.Equal(updated.Content, "final")

	is.NoErr(svc.DeleteComment(signedIn(), c.ID))
	_, err = svc.UpdateComment(signedIn(), c.ID, &model.CommentRequest{Content: "again"})
	is.True(errors.Is(err, model.ErrCommentNotFound))
}
