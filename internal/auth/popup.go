package auth

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/server/respond"
)

// popupMessage is posted to the window that opened the sign-in popup.
type popupMessage struct {
	Type          string `json:"type"`
	RequiresTerms bool   `json:"requiresTerms"`
	Token         string `json:"token,omitempty"`
	Message       string `json:"message,omitempty"`
}

var popupTemplate = template.Must(template.New("popup").Parse(`<html>
  <body>
    <script>
      if (window.opener) {
        window.opener.postMessage({{.Message}}, {{.Origin}});
      }
      window.close();
    </script>
  </body>
</html>
`))

func (s *GoogleService) renderPopup(c *gin.Context, msg popupMessage) {
	var buf bytes.Buffer
	err := popupTemplate.Execute(&buf, struct {
		Message popupMessage
		Origin  string
	}{Message: msg, Origin: s.cfg.ClientURL})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render page", nil)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
