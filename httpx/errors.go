package httpx

import (
	"fmt"
	"net/http"

	"github.com/mbolis/qr-requests/log"
)

// LogInternalError logs the error and answers 500 with the default text.
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// LogNotFound logs the missed lookup key at debug level and answers 404.
func LogNotFound(w http.ResponseWriter, code string, key any) {
	log.Debugf("%s: not found (%v)", code, key)
	w.WriteHeader(http.StatusNotFound)
}

// LogStatus logs the error code at the given level and answers with the
// status and its default text.
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// LogStatusMsg logs the error code and formatted message at the given
// level, and sends the message as the response body.
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}
