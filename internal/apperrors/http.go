package apperrors

import (
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
)

// ErrorBody is the JSON envelope written for failed requests.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code                 string            `json:"code"`
	Message              string            `json:"message"`
	ApplicationErrorCode string            `json:"applicationErrorCode,omitempty"`
	Details              map[string]string `json:"details,omitempty"`
}

// Body builds the response envelope and HTTP status for err.
func Body(err error) (int, ErrorBody) {
	st := ToStatus(err)
	appCode, metadata := Reason(st)
	body := ErrorBody{Error: ErrorDetail{
		Code:    st.Code().String(),
		Message: st.Message(),
		Details: metadata,
	}}
	if appCode != CodeUnknown {
		body.Error.ApplicationErrorCode = string(appCode)
	}
	return runtime.HTTPStatusFromCode(st.Code()), body
}

// Abort writes err as the response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	httpStatus, body := Body(err)
	if httpStatus >= 500 {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.AbortWithStatusJSON(httpStatus, body)
}
