package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type depositParams struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

type mintParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type depositAndMintParams struct {
	Address          string `json:"address"`
	Symbol           string `json:"symbol"`
	CollateralAmount string `json:"collateralAmount"`
	MintAmount       string `json:"mintAmount"`
}

type redeemParams struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

type redeemForStableParams struct {
	Address          string `json:"address"`
	Symbol           string `json:"symbol"`
	CollateralAmount string `json:"collateralAmount"`
	BurnAmount       string `json:"burnAmount"`
}

type burnParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type liquidateParams struct {
	Liquidator  string `json:"liquidator"`
	Account     string `json:"account"`
	Symbol      string `json:"symbol"`
	DebtToCover string `json:"debtToCover"`
}

type accountParams struct {
	Address string `json:"address"`
}

type collateralBalanceParams struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type opResult struct {
	Status string `json:"status"`
}

type accountInformationResult struct {
	Address         string `json:"address"`
	Debt            string `json:"debt"`
	CollateralValue string `json:"collateralValue"`
	HealthFactor    string `json:"healthFactor"`
}

type collateralValueResult struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

type collateralBalanceResult struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

type collateralAssetResult struct {
	Symbol string `json:"symbol"`
	FeedID string `json:"feedId"`
}

type paramsResult struct {
	LiquidationThreshold uint64 `json:"liquidationThreshold"`
	LiquidationBonus     uint64 `json:"liquidationBonus"`
	MinHealthFactor      string `json:"minHealthFactor"`
}

var statusOK = opResult{Status: "ok"}

func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected one parameter object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter", err.Error())
		return false
	}
	return true
}

func parseAddress(w http.ResponseWriter, req *RPCRequest, field, value string) (common.Address, bool) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, field+" must be a hex address", value)
		return common.Address{}, false
	}
	return common.HexToAddress(trimmed), true
}

func parseAmount(w http.ResponseWriter, req *RPCRequest, field, value string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, field+" must be a positive base-10 integer", value)
		return nil, false
	}
	return amount, true
}

func (s *Server) handleDepositCollateral(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	s.completeOp(w, req, "depositCollateral", s.engine.DepositCollateral(addr, params.Symbol, amount))
}

func (s *Server) handleMint(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	s.completeOp(w, req, "mint", s.engine.MintStableUnit(addr, amount))
}

func (s *Server) handleDepositAndMint(w http.ResponseWriter, req *RPCRequest) {
	var params depositAndMintParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	collateral, ok := parseAmount(w, req, "collateralAmount", params.CollateralAmount)
	if !ok {
		return
	}
	mint, ok := parseAmount(w, req, "mintAmount", params.MintAmount)
	if !ok {
		return
	}
	s.completeOp(w, req, "depositAndMint", s.engine.DepositCollateralAndMintStableUnit(addr, params.Symbol, collateral, mint))
}

func (s *Server) handleRedeemCollateral(w http.ResponseWriter, req *RPCRequest) {
	var params redeemParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	s.completeOp(w, req, "redeemCollateral", s.engine.RedeemCollateral(addr, params.Symbol, amount))
}

func (s *Server) handleRedeemForStable(w http.ResponseWriter, req *RPCRequest) {
	var params redeemForStableParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	collateral, ok := parseAmount(w, req, "collateralAmount", params.CollateralAmount)
	if !ok {
		return
	}
	burn, ok := parseAmount(w, req, "burnAmount", params.BurnAmount)
	if !ok {
		return
	}
	s.completeOp(w, req, "redeemForStable", s.engine.RedeemCollateralForStableUnit(addr, params.Symbol, collateral, burn))
}

func (s *Server) handleBurn(w http.ResponseWriter, req *RPCRequest) {
	var params burnParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	s.completeOp(w, req, "burn", s.engine.BurnStableUnit(addr, amount))
}

func (s *Server) handleLiquidate(w http.ResponseWriter, req *RPCRequest) {
	var params liquidateParams
	if !decodeParams(w, req, &params) {
		return
	}
	liquidator, ok := parseAddress(w, req, "liquidator", params.Liquidator)
	if !ok {
		return
	}
	account, ok := parseAddress(w, req, "account", params.Account)
	if !ok {
		return
	}
	cover, ok := parseAmount(w, req, "debtToCover", params.DebtToCover)
	if !ok {
		return
	}
	s.completeOp(w, req, "liquidate", s.engine.Liquidate(liquidator, params.Symbol, account, cover))
}

func (s *Server) handleGetAccountInformation(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	info, err := s.engine.AccountInformation(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, accountInformationResult{
		Address:         info.Address.Hex(),
		Debt:            info.Debt.String(),
		CollateralValue: info.CollateralValue.String(),
		HealthFactor:    info.HealthFactor.String(),
	})
}

func (s *Server) handleGetCollateralValue(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	value, err := s.engine.AccountCollateralValue(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, collateralValueResult{Address: addr.Hex(), Value: value.String()})
}

func (s *Server) handleGetCollateralBalance(w http.ResponseWriter, req *RPCRequest) {
	var params collateralBalanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := parseAddress(w, req, "address", params.Address)
	if !ok {
		return
	}
	amount, err := s.engine.CollateralBalanceOf(addr, params.Symbol)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, collateralBalanceResult{Address: addr.Hex(), Symbol: params.Symbol, Amount: amount.String()})
}

func (s *Server) handleListCollateral(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	assets := s.engine.CollateralAssets()
	out := make([]collateralAssetResult, 0, len(assets))
	for _, asset := range assets {
		out = append(out, collateralAssetResult{Symbol: asset.Symbol, FeedID: asset.FeedID})
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetParams(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	p := s.engine.Params()
	writeResult(w, req.ID, paramsResult{
		LiquidationThreshold: p.LiquidationThreshold,
		LiquidationBonus:     p.LiquidationBonus,
		MinHealthFactor:      p.MinHealthFactor.String(),
	})
}
