// Package appcodec encodes and decodes the JSON application protocol
// carried inside fragment payloads, using json-iterator for its
// encoding.Marshaler-compatible but allocation-lighter codec.
package appcodec

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/routewise/contentserver/device/content"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnknownRequestType is returned when a request envelope's "type" field
// does not match any known request.
var ErrUnknownRequestType = errors.New("unknown request type")

type envelope struct {
	Type string `json:"type"`
}

// fileListResponse holds ids as []int: a []uint8 field would be marshalled
// as a base64 string instead of a JSON array of numbers.
type fileListResponse struct {
	Type string `json:"type"`
	IDs  []int  `json:"ids"`
}

type fileRequest struct {
	Type string `json:"type"`
	ID   uint8  `json:"id"`
}

type textFileResponse struct {
	Type    string `json:"type"`
	ID      uint8  `json:"id"`
	Content string `json:"content"`
}

type mediaFileResponse struct {
	Type    string `json:"type"`
	ID      uint8  `json:"id"`
	Content []byte `json:"content"`
}

type serverTypeResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Codec implements content.Codec.
type Codec struct{}

// New returns a ready-to-use Codec.
func New() Codec {
	return Codec{}
}

// DecodeRequest implements content.Codec.
func (Codec) DecodeRequest(payload []byte) (content.Request, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return content.Request{}, fmt.Errorf("decode request envelope: %w", err)
	}

	switch env.Type {
	case "FileList":
		return content.Request{Kind: content.RequestFileList}, nil
	case "TextFile":
		var r fileRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			return content.Request{}, fmt.Errorf("decode text file request: %w", err)
		}
		return content.Request{Kind: content.RequestTextFile, FileID: r.ID}, nil
	case "MediaFile":
		var r fileRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			return content.Request{}, fmt.Errorf("decode media file request: %w", err)
		}
		return content.Request{Kind: content.RequestMediaFile, FileID: r.ID}, nil
	case "ServerType":
		return content.Request{Kind: content.RequestServerType}, nil
	default:
		return content.Request{}, fmt.Errorf("%w: %q", ErrUnknownRequestType, env.Type)
	}
}

// EncodeFileList implements content.Codec.
func (Codec) EncodeFileList(ids []uint8) ([]byte, error) {
	list := make([]int, len(ids))
	for i, id := range ids {
		list[i] = int(id)
	}
	return json.Marshal(fileListResponse{Type: "FileList", IDs: list})
}

// EncodeTextFile implements content.Codec.
func (Codec) EncodeTextFile(id uint8, text string) ([]byte, error) {
	return json.Marshal(textFileResponse{Type: "TextFile", ID: id, Content: text})
}

// EncodeMediaFile implements content.Codec.
func (Codec) EncodeMediaFile(id uint8, data []byte) ([]byte, error) {
	return json.Marshal(mediaFileResponse{Type: "MediaFile", ID: id, Content: data})
}

// EncodeServerType implements content.Codec.
func (Codec) EncodeServerType(t content.ServerType) ([]byte, error) {
	return json.Marshal(serverTypeResponse{Type: "ServerType", Value: t.String()})
}
