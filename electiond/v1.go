// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/util"
)

// challengeSize is the required size of an identity challenge.
const challengeSize = 32

func (e *electiond) handleVersion(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleVersion")

	b, err := e.backend.BestBlock()
	if err != nil {
		respondWithError(w, r, "handleVersion: BestBlock: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.VersionReply{
		Version: v1.APIVersion,
		Route:   v1.APIRoute,
		PubKey:  e.identity.Public.String(),
		Height:  b.Height,
	})
}

func (e *electiond) handleIdentity(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleIdentity")

	var i v1.Identity
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&i); err != nil {
		respondWithError(w, r, "handleIdentity: unmarshal: %v",
			v1.UserErrorReply{
				ErrorCode: v1.ErrorCodeInputInvalid,
			})
		return
	}
	challenge, err := hex.DecodeString(i.Challenge)
	if err != nil || len(challenge) != challengeSize {
		respondWithError(w, r, "handleIdentity: challenge: %v",
			v1.UserErrorReply{
				ErrorCode: v1.ErrorCodeChallengeInvalid,
			})
		return
	}

	response := e.identity.SignMessage(challenge)
	util.RespondWithJSON(w, http.StatusOK, v1.IdentityReply{
		PublicKey: e.identity.Public.String(),
		Response:  hex.EncodeToString(response[:]),
	})
}

func (e *electiond) handlePluginWrite(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handlePluginWrite")

	privileged, ok := e.privileged(w, r)
	if !ok {
		return
	}

	var pw v1.PluginWrite
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&pw); err != nil {
		respondWithError(w, r, "handlePluginWrite: unmarshal: %v",
			v1.UserErrorReply{
				ErrorCode: v1.ErrorCodeInputInvalid,
			})
		return
	}

	receipt, err := e.backend.PluginWrite(pw.Cmd.PluginID, pw.Cmd.Cmd,
		pw.Cmd.Payload, privileged)
	if err != nil {
		respondWithError(w, r, "handlePluginWrite: PluginWrite: %v", err)
		return
	}

	log.Infof("Plugin write %v %v committed in block %v",
		pw.Cmd.PluginID, pw.Cmd.Cmd, receipt.Block.Height)

	util.RespondWithJSON(w, http.StatusOK, v1.PluginWriteReply{
		Payload: receipt.Reply,
		Block:   convertBlockToV1(receipt.Block),
	})
}

func (e *electiond) handlePluginRead(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handlePluginRead")

	var pr v1.PluginRead
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&pr); err != nil {
		respondWithError(w, r, "handlePluginRead: unmarshal: %v",
			v1.UserErrorReply{
				ErrorCode: v1.ErrorCodeInputInvalid,
			})
		return
	}

	reply, err := e.backend.PluginRead(pr.Cmd.PluginID, pr.Cmd.Cmd,
		pr.Cmd.Payload)
	if err != nil {
		respondWithError(w, r, "handlePluginRead: PluginRead: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.PluginReadReply{
		Payload: reply,
	})
}

func (e *electiond) handlePluginInventory(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handlePluginInventory")

	inv := e.backend.PluginInventory()
	plugins := make([]v1.Plugin, 0, len(inv))
	for _, v := range inv {
		plugins = append(plugins, convertPluginToV1(v))
	}

	util.RespondWithJSON(w, http.StatusOK, v1.PluginInventoryReply{
		Plugins: plugins,
	})
}

func (e *electiond) handleBlock(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBlock")

	var bg v1.BlockGet
	err := util.ParseGetParams(r, &bg)
	if err != nil {
		respondWithError(w, r, "handleBlock: ParseGetParams: %v",
			v1.UserErrorReply{
				ErrorCode:    v1.ErrorCodeInputInvalid,
				ErrorContext: err.Error(),
			})
		return
	}

	b, err := e.backend.Block(bg.Height)
	if err != nil {
		respondWithError(w, r, "handleBlock: Block: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.BlockGetReply{
		Block: convertBlockToV1(*b),
	})
}

func (e *electiond) handleBlockBest(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBlockBest")

	b, err := e.backend.BestBlock()
	if err != nil {
		respondWithError(w, r, "handleBlockBest: BestBlock: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.BlockBestReply{
		Block: convertBlockToV1(*b),
	})
}

func (e *electiond) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleWebsocket")

	e.ws.HandleWebsocket(w, r)
}

// respondWithNotAuthorized replies with a 401 and a basic auth challenge.
func respondWithNotAuthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="electiond"`)
	util.RespondWithJSON(w, http.StatusUnauthorized, v1.UserErrorReply{
		ErrorCode: v1.ErrorCodeNotAuthorized,
	})
}

// respondWithError translates the provided error into a user error, a plugin
// error, or a server error and writes the reply.
func respondWithError(w http.ResponseWriter, r *http.Request, format string, err error) {
	var (
		ue v1.UserErrorReply
		pe backend.PluginError
	)
	switch {
	case errors.As(err, &ue):
		m := v1.ErrorCodes[ue.ErrorCode]
		if ue.ErrorContext != "" {
			m += ": " + ue.ErrorContext
		}
		log.Infof("User error: %v %v %v", util.RemoteAddr(r),
			ue.ErrorCode, m)
		util.RespondWithJSON(w, http.StatusBadRequest, ue)
		return

	case errors.As(err, &pe):
		log.Infof("Plugin error: %v %v %v %v", util.RemoteAddr(r),
			pe.PluginID, pe.ErrorReason, pe.ErrorContext)
		util.RespondWithJSON(w, http.StatusBadRequest,
			v1.PluginErrorReply{
				PluginID:     pe.PluginID,
				ErrorCode:    pe.ErrorCode,
				ErrorReason:  pe.ErrorReason,
				ErrorContext: pe.ErrorContext,
			})
		return

	case errors.Is(err, backend.ErrPluginNotPrivileged):
		log.Infof("Not authorized: %v", util.RemoteAddr(r))
		respondWithNotAuthorized(w)
		return
	}

	// Backend errors that were caused by the user
	var code v1.ErrorCodeT
	switch {
	case errors.Is(err, backend.ErrPluginIDInvalid):
		code = v1.ErrorCodePluginIDInvalid
	case errors.Is(err, backend.ErrPluginCmdInvalid):
		code = v1.ErrorCodePluginCmdInvalid
	case errors.Is(err, backend.ErrBlockNotFound):
		code = v1.ErrorCodeBlockNotFound
	}
	if code != v1.ErrorCodeInvalid {
		log.Infof("User error: %v %v %v", util.RemoteAddr(r), code,
			v1.ErrorCodes[code])
		util.RespondWithJSON(w, http.StatusBadRequest, v1.UserErrorReply{
			ErrorCode: code,
		})
		return
	}

	// This is an internal server error. Log it and return a 500.
	t := util.ServerErrorCode()
	log.Errorf("%v %v %v %v Internal error %v: %v",
		util.RemoteAddr(r), r.Method, r.URL, r.Proto, t,
		fmt.Sprintf(format, err))

	// Log the stack trace if this is a pkg/errors error
	if stack, ok := util.StackTrace(err); ok {
		log.Errorf("Stacktrace (NOT A REAL CRASH): %v", stack)
	} else {
		log.Debugf("Stacktrace (NOT A REAL CRASH): %s", debug.Stack())
	}

	util.RespondWithJSON(w, http.StatusInternalServerError,
		v1.ServerErrorReply{
			ErrorCode: t,
		})
}

func convertBlockToV1(b backend.Block) v1.Block {
	events := make([]v1.Event, 0, len(b.Events))
	for _, v := range b.Events {
		events = append(events, v1.Event{
			PluginID: v.PluginID,
			Name:     v.Name,
			Payload:  v.Payload,
		})
	}
	return v1.Block{
		Height:        b.Height,
		Timestamp:     b.Timestamp,
		PrevHash:      b.PrevHash,
		Hash:          b.Hash,
		PluginID:      b.PluginID,
		Cmd:           b.Cmd,
		PayloadDigest: b.PayloadDigest,
		Events:        events,
	}
}

func convertPluginToV1(p backend.Plugin) v1.Plugin {
	settings := make([]v1.PluginSetting, 0, len(p.Settings))
	for _, v := range p.Settings {
		settings = append(settings, v1.PluginSetting{
			Key:   v.Key,
			Value: v.Value,
		})
	}
	return v1.Plugin{
		ID:       p.ID,
		Settings: settings,
	}
}
