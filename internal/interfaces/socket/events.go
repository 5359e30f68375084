package socket

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/logger"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

// Reply messages
const (
	MessagePrinterFound       = "Printer found"
	MessageNoPrinterName      = "No Printer Name Provided"
	MessagePrinterNameMissing = "Printer name is missing in request"
	MessageInvalidPayload     = "Invalid print payload"
	MessageFileSaveFailed     = "File save failed"
	MessageFileNotFound       = "File not found"
	MessageInternalError      = "Internal Server Error"
	MessageUnavailable        = "Service Unavailable"
)

type checkPrinterPayload struct {
	Printer string `json:"printer" validate:"required"`
}

type printDataPayload struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	FileData    string `json:"fileData" validate:"required,base64"`
	PrinterName string `json:"printerName" validate:"max=256"`
	Copies      int    `json:"copies" validate:"omitempty,min=1"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Hub) getPrinter(ctx context.Context) Reply {
	printers, err := h.printService.ListPrinters(ctx)
	if err != nil {
		logger.L(ctx).Warn("failed to enumerate printers", zap.Error(err))
		return Reply{
			StatusCode: http.StatusInternalServerError,
			List:       []app.PrinterInfo{},
			Message:    MessageInternalError,
			Error:      err.Error(),
		}
	}
	if printers == nil {
		printers = []app.PrinterInfo{}
	}
	return Reply{StatusCode: http.StatusOK, List: printers, Message: handler.MessageHereIsData}
}

func (h *Hub) checkPrinter(ctx context.Context, data json.RawMessage) Reply {
	var payload checkPrinterPayload
	if !decodeObject(data, &payload) {
		return Reply{StatusCode: http.StatusBadRequest, Message: MessageNoPrinterName}
	}

	payload.Printer = strings.TrimSpace(payload.Printer)
	if err := h.validate.Struct(payload); err != nil {
		return Reply{StatusCode: http.StatusBadRequest, Message: MessagePrinterNameMissing}
	}

	info, err := h.printService.CheckPrinter(ctx, payload.Printer)
	switch {
	case errors.Is(err, app.ErrPrinterNotFound):
		return Reply{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("Printer '%s' not found", payload.Printer),
			Data:       map[string]any{},
		}
	case err != nil:
		logger.L(ctx).Warn("failed to check printer", zap.String("printer", payload.Printer), zap.Error(err))
		return Reply{StatusCode: http.StatusInternalServerError, Message: MessageInternalError, Error: err.Error()}
	}

	return Reply{StatusCode: http.StatusOK, Message: MessagePrinterFound, Data: info}
}

func (h *Hub) printData(ctx context.Context, data json.RawMessage) Reply {
	var payload printDataPayload
	if !decodeObject(data, &payload) {
		return Reply{StatusCode: http.StatusBadRequest, Message: MessageInvalidPayload, Error: "data must be an object"}
	}
	if err := h.validate.Struct(payload); err != nil {
		return Reply{StatusCode: http.StatusBadRequest, Message: MessageInvalidPayload, Error: describeValidation(err)}
	}

	fileBytes, err := base64.StdEncoding.DecodeString(payload.FileData)
	if err != nil {
		return Reply{StatusCode: http.StatusBadRequest, Message: MessageInvalidPayload, Error: "fileData is not valid base64"}
	}

	ticket, err := h.printService.Submit(ctx, app.SubmitRequest{
		Channel:     printing.SourceChannelSocketEvent,
		FileName:    payload.FileName,
		FileBytes:   fileBytes,
		PrinterName: payload.PrinterName,
		Copies:      payload.Copies,
	})
	if err != nil {
		return submitErrorReply(ctx, err)
	}

	ctx, log := logger.WithJobID(ctx, logger.FromContext(ctx), ticket.JobID.String())

	waitCtx, cancel := context.WithTimeout(ctx, h.cfg.ResultWait)
	defer cancel()

	result, err := ticket.Wait(waitCtx)
	if err != nil {
		log.Info("print job still running, answering accepted", zap.Error(err))
		return Reply{StatusCode: http.StatusOK, Message: handler.MessagePrintAccepted, JobID: ticket.JobID.String()}
	}

	if !result.Succeeded() {
		reply := jobErrorReply(result.Err)
		reply.JobID = ticket.JobID.String()
		return reply
	}

	return Reply{StatusCode: http.StatusOK, Message: handler.MessagePrintAccepted, JobID: ticket.JobID.String()}
}

func submitErrorReply(ctx context.Context, err error) Reply {
	switch {
	case errors.Is(err, app.ErrQueueFull), errors.Is(err, app.ErrOrchestratorNotRunning):
		return Reply{StatusCode: http.StatusServiceUnavailable, Message: MessageUnavailable, Error: err.Error()}
	case errors.Is(err, printing.ErrIngress):
		return Reply{StatusCode: http.StatusBadRequest, Message: MessageInvalidPayload, Error: err.Error()}
	default:
		logger.L(ctx).Error("failed to submit print job", zap.Error(err))
		return Reply{StatusCode: http.StatusInternalServerError, Message: MessageInternalError, Error: err.Error()}
	}
}

func jobErrorReply(jobErr *printing.JobError) Reply {
	if jobErr == nil {
		return Reply{StatusCode: http.StatusInternalServerError, Message: MessageInternalError}
	}
	reply := Reply{StatusCode: http.StatusInternalServerError, Error: jobErr.Error()}
	switch {
	case jobErr.Kind == printing.ErrorKindStaging && jobErr.Code == printing.ErrCodeFileMissing:
		reply.Message = MessageFileNotFound
	case jobErr.Kind == printing.ErrorKindStaging:
		reply.Message = MessageFileSaveFailed
	default:
		reply.Message = MessageInternalError
	}
	return reply
}

// decodeObject reports whether data holds a JSON object decodable into v
func decodeObject(data json.RawMessage, v any) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
