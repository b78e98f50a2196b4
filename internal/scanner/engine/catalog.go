package engine

import "strings"

// Asset is one entry of the fixed crypto catalog.
type Asset struct {
	Symbol  string
	Name    string
	Aliases []string
}

// catalog order is the detection order for alias hits.
var catalog = []Asset{
	{Symbol: "BTC", Name: "Bitcoin", Aliases: []string{"bitcoin", "btc", "satoshis", "btcusd"}},
	{Symbol: "ETH", Name: "Ethereum", Aliases: []string{"ethereum", "eth", "ethusd", "ether"}},
	{Symbol: "SOL", Name: "Solana", Aliases: []string{"solana", "sol", "solusd"}},
	{Symbol: "BNB", Name: "Binance Coin", Aliases: []string{"bnb", "binance coin"}},
	{Symbol: "XRP", Name: "XRP", Aliases: []string{"xrp", "ripple"}},
	{Symbol: "ADA", Name: "Cardano", Aliases: []string{"ada", "cardano"}},
	{Symbol: "DOGE", Name: "Dogecoin", Aliases: []string{"dogecoin", "doge"}},
	{Symbol: "DOT", Name: "Polkadot", Aliases: []string{"polkadot", "dot"}},
	{Symbol: "MATIC", Name: "Polygon", Aliases: []string{"polygon", "matic"}},
	{Symbol: "AVAX", Name: "Avalanche", Aliases: []string{"avax", "avalanche"}},
	{Symbol: "ARB", Name: "Arbitrum", Aliases: []string{"arb", "arbitrum"}},
	{Symbol: "OP", Name: "Optimism", Aliases: []string{"op", "optimism"}},
	{Symbol: "LTC", Name: "Litecoin", Aliases: []string{"ltc", "litecoin"}},
	{Symbol: "ATOM", Name: "Cosmos", Aliases: []string{"atom", "cosmos"}},
	{Symbol: "NEAR", Name: "NEAR Protocol", Aliases: []string{"near", "near protocol"}},
	{Symbol: "AAVE", Name: "Aave", Aliases: []string{"aave"}},
	{Symbol: "UNI", Name: "Uniswap", Aliases: []string{"uni", "uniswap"}},
	{Symbol: "SUI", Name: "Sui", Aliases: []string{"sui"}},
	{Symbol: "TIA", Name: "Celestia", Aliases: []string{"tia", "celestia"}},
	{Symbol: "LINK", Name: "Chainlink", Aliases: []string{"link", "chainlink"}},
}

// aliasIndex maps every lowercase alias and symbol to its catalog entry.
var aliasIndex = buildAliasIndex(catalog)

func buildAliasIndex(assets []Asset) map[string]Asset {
	index := make(map[string]Asset, len(assets)*4)
	for _, asset := range assets {
		for _, alias := range asset.Aliases {
			index[strings.ToLower(alias)] = asset
		}
		index[strings.ToLower(asset.Symbol)] = asset
	}
	return index
}

// LookupAsset resolves a symbol or alias, case-insensitively.
func LookupAsset(token string) (Asset, bool) {
	asset, ok := aliasIndex[strings.ToLower(token)]
	return asset, ok
}

// Catalog returns a copy of the asset catalog.
func Catalog() []Asset {
	out := make([]Asset, len(catalog))
	copy(out, catalog)
	return out
}

var positiveWords = []string{
	"bullish",
	"buy",
	"long",
	"moon",
	"pump",
	"strong",
	"breakout",
	"undervalued",
	"accumulating",
}

var negativeWords = []string{
	"bearish",
	"sell",
	"short",
	"dump",
	"weak",
	"crash",
	"overvalued",
	"fomo",
}

type topicRule struct {
	Topic    string
	Keywords []string
}

const defaultTopic = "crypto"

var topicRules = []topicRule{
	{Topic: defaultTopic, Keywords: []string{"crypto", "blockchain", "digital asset", "layer1", "layer2"}},
	{Topic: "DeFi", Keywords: []string{"yield", "defi", "staking", "liquidity", "dex"}},
	{Topic: "NFT", Keywords: []string{"nft", "collectible", "mint", "airdrop"}},
	{Topic: "trading", Keywords: []string{"trade", "trading", "leverage", "position", "entry", "exit"}},
}
