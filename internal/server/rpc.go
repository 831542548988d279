package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"cs2-tracker/internal/domain"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TrackerServiceName = "cs2tracker.v1.TrackerService"
	TrackerServicePath = "/" + TrackerServiceName + "/"

	GetRosterProcedure    = TrackerServicePath + "GetRoster"
	GetPlayerProcedure    = TrackerServicePath + "GetPlayer"
	GetLastMatchProcedure = TrackerServicePath + "GetLastMatch"
)

// rpcHandler serves the tracker service. Requests and responses are
// google.protobuf.Struct messages with the same fields as the JSON routes:
// GetRoster takes type, owner and page, the player calls take nickname.
func (s *Server) rpcHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(GetRosterProcedure, connect.NewUnaryHandler(GetRosterProcedure, s.GetRoster))
	mux.Handle(GetPlayerProcedure, connect.NewUnaryHandler(GetPlayerProcedure, s.GetPlayer))
	mux.Handle(GetLastMatchProcedure, connect.NewUnaryHandler(GetLastMatchProcedure, s.GetLastMatch))
	return mux
}

func (s *Server) GetRoster(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	page := 1
	if v, ok := fields["page"]; ok {
		n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
		if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("page must be a whole number"))
		}
		page = int(n.NumberValue)
	}

	query := domain.RosterQuery{
		GameType: fields["type"].GetStringValue(),
		Owner:    fields["owner"].GetStringValue(),
	}
	return structResponse(s.rosterPage(ctx, query, page))
}

func (s *Server) GetPlayer(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	resp, err := s.lookupPlayer(ctx, req.Msg.GetFields()["nickname"].GetStringValue())
	if err != nil {
		return nil, connect.NewError(codeFor(err), err)
	}
	return structResponse(resp)
}

func (s *Server) GetLastMatch(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	resp, err := s.lookupLastMatch(ctx, req.Msg.GetFields()["nickname"].GetStringValue())
	if err != nil {
		return nil, connect.NewError(codeFor(err), err)
	}
	return structResponse(resp)
}

// codeFor is statusFor for connect callers.
func codeFor(err error) connect.Code {
	switch statusFor(err) {
	case http.StatusNotFound:
		return connect.CodeNotFound
	case http.StatusGatewayTimeout:
		return connect.CodeDeadlineExceeded
	case http.StatusServiceUnavailable:
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeUnavailable
	}
}

func structResponse(v any) (*connect.Response[structpb.Struct], error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(b, msg); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}
