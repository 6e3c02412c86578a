package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body for both encodings.  A scan token
// is a short QR payload; 16 KiB leaves room for badly corrupted ones.
const maxRequestBody = 16 << 10

const protobufContentType = "application/x-protobuf"

func isProtobufType(ct string) bool {
	ct = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	return ct == protobufContentType ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// isProtobuf reports whether the request body is a protobuf Struct.
func isProtobuf(r *http.Request) bool {
	return isProtobufType(r.Header.Get("Content-Type"))
}

// wantsProtobuf reports whether the client should get a protobuf reply:
// either it asked for one or it spoke protobuf itself.
func wantsProtobuf(r *http.Request) bool {
	for _, a := range strings.Split(r.Header.Get("Accept"), ",") {
		if isProtobufType(a) {
			return true
		}
	}
	return isProtobuf(r)
}

// decodeRequest fills v from either encoding.  Unknown fields are rejected
// in both.
func decodeRequest(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxRequestBody)
	if !isProtobuf(r) {
		return decodeStrictJSON(body, v)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return err
	}
	return fromStruct(&msg, v)
}

func decodeStrictJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		writeProto(w, status, v)
		return
	}
	writeJSON(w, status, v)
}

// writeProto marshals v as a structpb.Struct with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, v any) {
	msg, err := toStruct(v)
	if err != nil {
		http.Error(w, "proto encode error", http.StatusInternalServerError)
		return
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeResponse(w, r, status, errorBody{Error: code, Message: msg})
}
