package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notenpfad-api/internal/middleware"
	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
	"github.com/noah-isme/notenpfad-api/pkg/response"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.CurrentActor(c)
}

// bindJSON decodes the request body. Malformed JSON is a 400; field level
// problems are left to the service validators and surface as 422.
func bindJSON(c *gin.Context, dest interface{}, what string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload"))
		return false
	}
	return true
}

// queryStudentID accepts both studentId and student_id.
func queryStudentID(c *gin.Context) string {
	if v := strings.TrimSpace(c.Query("studentId")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("student_id"))
}

func querySubjectID(c *gin.Context) string {
	if v := strings.TrimSpace(c.Query("subjectId")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("subject_id"))
}
