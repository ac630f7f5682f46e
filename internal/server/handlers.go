package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"dahuaptz/internal/camera"
	"dahuaptz/internal/config"
	"dahuaptz/internal/dahua"
)

// HealthResponse はヘルスチェックの応答
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInfo はサーバーのリッスン情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StatusResponse はシステム状態の応答
type StatusResponse struct {
	Status    string     `json:"status"`
	Server    ServerInfo `json:"server"`
	Cameras   int        `json:"cameras"`
	Active    int        `json:"active"`
	Timestamp time.Time  `json:"timestamp"`
}

// CameraInfo はカメラ情報の応答
type CameraInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Host      string     `json:"host"`
	ForceText bool       `json:"forceText"`
	Status    string     `json:"status"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// CamerasResponse はカメラ一覧の応答
type CamerasResponse struct {
	Cameras []CameraInfo `json:"cameras"`
}

// PTZResponse はPTZコマンドの応答
type PTZResponse struct {
	Accepted bool            `json:"accepted"`
	Response json.RawMessage `json:"response,omitempty"`
}

// ErrorResponse はエラー応答
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PTZHandler はAPIの各エンドポイントを実装する
type PTZHandler struct {
	config        *config.Config
	cameraManager camera.Manager
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *PTZHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *PTZHandler) GetStatus(c *gin.Context) {
	cameras := h.cameraManager.GetCameras()
	active := 0
	for _, cam := range cameras {
		if cam.Status == camera.StatusActive {
			active++
		}
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Cameras:   len(cameras),
		Active:    active,
		Timestamp: time.Now(),
	})
}

// GetCameras はカメラ一覧取得エンドポイントの実装
func (h *PTZHandler) GetCameras(c *gin.Context) {
	managed := h.cameraManager.GetCameras()
	cameras := make([]CameraInfo, 0, len(managed))
	for _, cam := range managed {
		cameras = append(cameras, toCameraInfo(cam))
	}

	c.JSON(http.StatusOK, CamerasResponse{Cameras: cameras})
}

// GetCamera はカメラ取得エンドポイントの実装
func (h *PTZHandler) GetCamera(c *gin.Context) {
	cameraID, ok := bindCameraID(c)
	if !ok {
		return
	}

	cam, found := h.cameraManager.GetCamera(cameraID)
	if !found {
		abortWithError(c, http.StatusNotFound, "camera_not_found", "指定されたカメラが見つかりません", cameraID)
		return
	}

	c.JSON(http.StatusOK, toCameraInfo(*cam))
}

// ControlCamera はPTZコマンド送信エンドポイントの実装
func (h *PTZHandler) ControlCamera(c *gin.Context) {
	cameraID, ok := bindCameraID(c)
	if !ok {
		return
	}

	var req camera.PTZRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
			return
		}
	}

	result, err := h.cameraManager.Control(c.Request.Context(), cameraID, req.Command())
	if err != nil {
		abortWithCameraError(c, err)
		return
	}

	response := PTZResponse{Accepted: result.Accepted}
	if result.Response != nil {
		if raw := result.Response.Raw(); json.Valid([]byte(raw)) {
			response.Response = json.RawMessage(raw)
		}
	}
	c.JSON(http.StatusOK, response)
}

// RestartCamera はカメラ再ログインエンドポイントの実装
func (h *PTZHandler) RestartCamera(c *gin.Context) {
	cameraID, ok := bindCameraID(c)
	if !ok {
		return
	}

	if err := h.cameraManager.RestartCamera(c.Request.Context(), cameraID); err != nil {
		abortWithCameraError(c, err)
		return
	}

	cam, found := h.cameraManager.GetCamera(cameraID)
	if !found {
		abortWithError(c, http.StatusNotFound, "camera_not_found", "指定されたカメラが見つかりません", cameraID)
		return
	}
	c.JSON(http.StatusOK, toCameraInfo(*cam))
}

// ヘルパー関数

// bindCameraID はパスパラメータ cameraId を取り出す
func bindCameraID(c *gin.Context) (string, bool) {
	var cameraID string
	err := runtime.BindStyledParameterWithOptions("simple", "cameraId", c.Param("cameraId"), &cameraID,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_parameter", "cameraId が不正です", err.Error())
		return "", false
	}
	return cameraID, true
}

// abortWithCameraError はカメラ操作のエラーをHTTPステータスに変換する
func abortWithCameraError(c *gin.Context, err error) {
	var transportErr *dahua.TransportError
	var authErr *dahua.AuthError

	switch {
	case errors.Is(err, camera.ErrCameraNotFound):
		abortWithError(c, http.StatusNotFound, "camera_not_found", "指定されたカメラが見つかりません", err.Error())
	case errors.Is(err, dahua.ErrInvalidAction):
		abortWithError(c, http.StatusBadRequest, "invalid_action", "action は start か stop です", err.Error())
	case errors.Is(err, dahua.ErrNotConnected):
		abortWithError(c, http.StatusConflict, "camera_not_connected", "カメラにログインしていません", err.Error())
	case errors.As(err, &authErr):
		abortWithError(c, http.StatusBadGateway, "login_failed", "カメラへのログインに失敗しました", err.Error())
	case errors.As(err, &transportErr):
		abortWithError(c, http.StatusBadGateway, "camera_unreachable", "カメラとの通信に失敗しました", err.Error())
	default:
		abortWithError(c, http.StatusBadGateway, "camera_error", "カメラの操作に失敗しました", err.Error())
	}
}

func abortWithError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// toCameraInfo はカメラ情報を応答の形に変換する
func toCameraInfo(cam camera.Camera) CameraInfo {
	info := CameraInfo{
		ID:        cam.ID,
		Name:      cam.Name,
		Host:      cam.Host,
		ForceText: cam.ForceText,
		Status:    string(cam.Status),
		LastError: cam.LastError,
	}
	if !cam.LastSeen.IsZero() {
		lastSeen := cam.LastSeen
		info.LastSeen = &lastSeen
	}
	return info
}
