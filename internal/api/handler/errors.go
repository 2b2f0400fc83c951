package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// Business codes. The first two digits name the module.
const (
	CodeInvalidParams   = 10001
	CodeUnauthenticated = 10002
	CodeForbidden       = 10003
	CodeRateLimited     = 10004
	CodeBodyTooLarge    = 10005
	CodeOptimisticLock  = 10006
	CodeStateConflict   = 10007

	CodeOAuthState         = 11001
	CodeOAuthDenied        = 11002
	CodeOAuthFailed        = 11003
	CodeInvalidRefresh     = 11004
	CodeTokenRevoked       = 11005
	CodeDiscordUnavailable = 11006

	CodeUserNotFound   = 12001
	CodeUserBanned     = 12002
	CodeSelfRoleChange = 12003
	CodeSelfBan        = 12004
	CodeInvalidRole    = 12005

	CodeNotPending    = 13001
	CodeNotOwner      = 13002
	CodeNotStaff      = 13003
	CodeUnknownEntity = 13004
	CodeScriptMissing = 13101
	CodeInvalidPrice  = 13102

	CodeGiveawayMissing     = 14001
	CodeGiveawayRange       = 14002
	CodePrizePlace          = 14003
	CodeGiveawayNotApproved = 14004
	CodeGiveawayNotRunning  = 14005
	CodeCreatorCannotEnter  = 14006
	CodeAlreadyEntered      = 14007
	CodeRequirementNotMet   = 14008
	CodeGiveawayNotEnded    = 14009
	CodeWinnersDrawn        = 14010

	CodeAdMissing      = 15001
	CodeInvalidInvite  = 15002
	CodeInviteNotFound = 15003

	CodeSlotRange    = 16001
	CodeSlotKind     = 16002
	CodeSlotTarget   = 16003
	CodeSlotCapacity = 16004
	CodeSlotMissing  = 16005
	CodeSlotInactive = 16006

	CodeStorageDisabled = 17001
	CodeFileTooLarge    = 17002
	CodeUnsupportedFile = 17003
	CodeEmptyFile       = 17004
	CodeExportEmpty     = 17101
)

type apiError struct {
	err    error
	status int
	code   int
}

// errorTable matched in order with errors.Is; the sentinel text is the message.
var errorTable = []apiError{
	{pkgerrors.ErrOptimisticLock, http.StatusConflict, CodeOptimisticLock},
	{pkgerrors.ErrStateConflict, http.StatusConflict, CodeStateConflict},

	// ── auth ──
	{service.ErrOAuthDenied, http.StatusBadRequest, CodeOAuthDenied},
	{service.ErrOAuthFailed, http.StatusUnauthorized, CodeOAuthFailed},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, CodeInvalidRefresh},
	{service.ErrTokenRevoked, http.StatusUnauthorized, CodeTokenRevoked},
	{service.ErrDiscordUnavailable, http.StatusServiceUnavailable, CodeDiscordUnavailable},

	// ── users ──
	{service.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound},
	{service.ErrUserBanned, http.StatusForbidden, CodeUserBanned},
	{service.ErrUserSelfRoleChange, http.StatusBadRequest, CodeSelfRoleChange},
	{service.ErrUserSelfBan, http.StatusBadRequest, CodeSelfBan},
	{service.ErrInvalidRole, http.StatusBadRequest, CodeInvalidRole},

	// ── workflow ──
	{service.ErrNotPending, http.StatusConflict, CodeNotPending},
	{service.ErrNotOwner, http.StatusForbidden, CodeNotOwner},
	{service.ErrNotStaff, http.StatusForbidden, CodeNotStaff},
	{service.ErrUnknownEntity, http.StatusBadRequest, CodeUnknownEntity},
	{service.ErrScriptNotFound, http.StatusNotFound, CodeScriptMissing},
	{service.ErrInvalidPrice, http.StatusBadRequest, CodeInvalidPrice},

	// ── giveaways ──
	{service.ErrGiveawayNotFound, http.StatusNotFound, CodeGiveawayMissing},
	{service.ErrGiveawayInvalidRange, http.StatusBadRequest, CodeGiveawayRange},
	{service.ErrPrizePlaceOutOfRange, http.StatusBadRequest, CodePrizePlace},
	{service.ErrGiveawayNotApproved, http.StatusConflict, CodeGiveawayNotApproved},
	{service.ErrGiveawayNotRunning, http.StatusConflict, CodeGiveawayNotRunning},
	{service.ErrCreatorCannotEnter, http.StatusForbidden, CodeCreatorCannotEnter},
	{service.ErrAlreadyEntered, http.StatusConflict, CodeAlreadyEntered},
	{service.ErrRequirementNotMet, http.StatusForbidden, CodeRequirementNotMet},
	{service.ErrGiveawayNotEnded, http.StatusConflict, CodeGiveawayNotEnded},
	{service.ErrWinnersAlreadyDrawn, http.StatusConflict, CodeWinnersDrawn},

	// ── ads ──
	{service.ErrAdNotFound, http.StatusNotFound, CodeAdMissing},
	{service.ErrInvalidInvite, http.StatusBadRequest, CodeInvalidInvite},
	{service.ErrInviteNotFound, http.StatusBadRequest, CodeInviteNotFound},

	// ── slots ──
	{service.ErrInvalidSlotRange, http.StatusBadRequest, CodeSlotRange},
	{service.ErrInvalidSlotKind, http.StatusBadRequest, CodeSlotKind},
	{service.ErrSlotTargetNotFound, http.StatusBadRequest, CodeSlotTarget},
	{service.ErrSlotCapacityReached, http.StatusConflict, CodeSlotCapacity},
	{service.ErrSlotNotFound, http.StatusNotFound, CodeSlotMissing},
	{service.ErrSlotNotActive, http.StatusConflict, CodeSlotInactive},

	// ── uploads / export ──
	{service.ErrStorageDisabled, http.StatusServiceUnavailable, CodeStorageDisabled},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge},
	{service.ErrUnsupportedUpload, http.StatusUnsupportedMediaType, CodeUnsupportedFile},
	{service.ErrEmptyUpload, http.StatusBadRequest, CodeEmptyFile},
	{service.ErrExportNoSlots, http.StatusNotFound, CodeExportEmpty},
}

// detailed errors carry the wrapped text as details
var detailed = []error{service.ErrRequirementNotMet}

func lookupError(err error) (apiError, bool) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e, true
		}
	}
	return apiError{}, false
}

// writeError maps a service error to the response envelope.
// Unknown errors are logged and answered with a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	e, ok := lookupError(err)
	if !ok {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		response.InternalError(c)
		return
	}
	for _, d := range detailed {
		if errors.Is(err, d) {
			response.ErrorWithDetails(c, e.status, e.code, e.err.Error(), err.Error())
			return
		}
	}
	response.Error(c, e.status, e.code, e.err.Error())
}

func badRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, CodeInvalidParams, "invalid parameters", err.Error())
}
