// Package datastream writes the line framed data stream understood by the AI SDK chat clients.
// Every part is "<code>:<json>\n".
package datastream

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	HeaderName    = "X-Vercel-AI-Data-Stream"
	HeaderVersion = "v1"
	ContentType   = "text/plain; charset=utf-8"
)

const (
	PartText          = "0"
	PartError         = "3"
	PartStartStep     = "f"
	PartFinishStep    = "e"
	PartFinishMessage = "d"
)

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type startStep struct {
	MessageId string `json:"messageId"`
}

type finishStep struct {
	FinishReason string `json:"finishReason"`
	Usage        Usage  `json:"usage"`
	IsContinued  bool   `json:"isContinued"`
}

type finishMessage struct {
	FinishReason string `json:"finishReason"`
	Usage        Usage  `json:"usage"`
}

type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) part(code string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s part: %w", code, err)
	}
	if _, err := fmt.Fprintf(w.w, "%s:%s\n", code, payload); err != nil {
		return err
	}
	return nil
}

func (w *Writer) StartStep(messageId string) error {
	return w.part(PartStartStep, startStep{MessageId: messageId})
}

func (w *Writer) Text(delta string) error {
	return w.part(PartText, delta)
}

func (w *Writer) Error(message string) error {
	return w.part(PartError, message)
}

func (w *Writer) FinishStep(reason string, usage Usage, isContinued bool) error {
	return w.part(PartFinishStep, finishStep{FinishReason: reason, Usage: usage, IsContinued: isContinued})
}

func (w *Writer) FinishMessage(reason string, usage Usage) error {
	return w.part(PartFinishMessage, finishMessage{FinishReason: reason, Usage: usage})
}
