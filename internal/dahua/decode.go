package dahua

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/buger/jsonparser"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errContentType は宣言されたContent-TypeがJSONではないことを表す
var errContentType = errors.New("Content-TypeがJSONではありません")

var (
	errNotObject     = errors.New("本文がJSONオブジェクトではありません")
	errMissingResult = errors.New("result がありません")
)

// decodeResponse は応答本文を解析する。
// forceText でなければまず宣言されたContent-Typeに従って解析し、
// 不一致または失敗した場合は生テキストとして解析し直す
func decodeResponse(contentType string, body []byte, forceText bool, log Logger) (*Response, error) {
	if !forceText {
		resp, err := decodeDeclared(contentType, body)
		if err == nil {
			return resp, nil
		}
		log.Warnf("テキストとしての解析にフォールバックします: %v", err)
	}
	return decodeRawText(body)
}

// decodeDeclared はContent-TypeがJSONであることを確認してから解析する
func decodeDeclared(contentType string, body []byte) (*Response, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errContentType, contentType)
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return nil, fmt.Errorf("%w: %q", errContentType, contentType)
	}

	text := bytes.TrimSpace(body)
	if len(text) == 0 || text[0] != '{' {
		return nil, errNotObject
	}

	var resp Response
	if err := json.Unmarshal(text, &resp); err != nil {
		return nil, err
	}
	if resp.Result.raw == nil {
		return nil, errMissingResult
	}
	resp.raw = body
	return &resp, nil
}

// decodeRawText は本文をテキストとして読み、構造を直接たどって解析する。
// BOMや前後の空白は無視する
func decodeRawText(body []byte) (*Response, error) {
	text := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(text) == 0 {
		return nil, errors.New("本文が空です")
	}
	if text[0] != '{' {
		return nil, errNotObject
	}
	if !json.Valid(text) {
		return nil, errors.New("本文が正しいJSONではありません")
	}

	resp := &Response{raw: body}
	err := jsonparser.ObjectEach(text, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "id":
			if typ == jsonparser.Number {
				id, err := jsonparser.ParseInt(value)
				if err != nil {
					return fmt.Errorf("id: %w", err)
				}
				resp.ID = id
			}
		case "result":
			resp.Result = Result{raw: rawJSON(value, typ)}
		case "session":
			id, err := sessionFromValue(value, typ)
			if err != nil {
				return err
			}
			resp.Session = id
		case "params":
			if typ == jsonparser.Object {
				resp.Params = append(json.RawMessage(nil), value...)
			}
		case "error":
			if typ == jsonparser.Object {
				rpcErr := &RPCError{}
				rpcErr.Code, _ = jsonparser.GetInt(value, "code")
				rpcErr.Message, _ = jsonparser.GetString(value, "message")
				resp.Error = rpcErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resp.Result.raw == nil {
		return nil, errMissingResult
	}
	return resp, nil
}

// rawJSON はjsonparserが返した値をJSON表現に戻す（文字列は引用符を外されているため）
func rawJSON(value []byte, typ jsonparser.ValueType) []byte {
	if typ == jsonparser.String {
		out := make([]byte, 0, len(value)+2)
		out = append(out, '"')
		out = append(out, value...)
		return append(out, '"')
	}
	return append([]byte(nil), value...)
}
