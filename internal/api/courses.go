package api

import (
	"log/slog"
	"net/http"

	"github.com/coursechat/coursechat/internal/app"
)

// CoursesResponse is the reply to GET /api/courses.
type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

type coursesHandler struct {
	app    *app.App
	logger *slog.Logger
}

func (h *coursesHandler) list(w http.ResponseWriter, _ *http.Request) {
	courses := h.app.Index.Courses()

	resp := CoursesResponse{
		TotalCourses: len(courses),
		CourseTitles: make([]string, 0, len(courses)),
	}
	for _, c := range courses {
		resp.CourseTitles = append(resp.CourseTitles, c.Title)
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
