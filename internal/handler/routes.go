package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/fonnet/fonnetapp/internal/auth"
)

// API returns the /api/v1 router. The actor is read from actorHeader.
func API(actorHeader string, tasks *TaskHandler, projects *ProjectHandler, providers *ProviderHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.Middleware(actorHeader))

	r.Mount("/projects", projects.Routes())
	r.Mount("/tasks", tasks.Routes())
	r.Mount("/comments", projects.CommentRoutes())
	r.Mount("/providers", providers.Routes())
	r.Mount("/files", providers.FileRoutes())

	return r
}
