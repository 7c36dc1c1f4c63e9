package coingecko

// majorCoinIDs maps well-known tickers to their CoinGecko coin ids.
// Several of these tickers are squatted by low-cap tokens in the full
// coin list, so the curated table takes precedence over index lookup.
var majorCoinIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"usdt":  "tether",
	"usdc":  "usd-coin",
	"bnb":   "binancecoin",
	"xrp":   "ripple",
	"sol":   "solana",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"trx":   "tron",
	"dot":   "polkadot",
	"matic": "matic-network",
	"dai":   "dai",
	"ltc":   "litecoin",
	"shib":  "shiba-inu",
	"avax":  "avalanche-2",
	"uni":   "uniswap",
	"link":  "chainlink",
	"atom":  "cosmos",
	"xlm":   "stellar",
	"near":  "near",
	"algo":  "algorand",
	"icp":   "internet-computer",
	"vet":   "vechain",
	"fil":   "filecoin",
	"aave":  "aave",
	"grt":   "the-graph",
	"mkr":   "maker",
	"ftm":   "fantom",
	"xtz":   "tezos",
	"hbar":  "hedera-hashgraph",
	"eos":   "eos",
	"xmr":   "monero",
	"snx":   "havven",
	"crv":   "curve-dao-token",
	"ldo":   "lido-dao",
	"arb":   "arbitrum",
	"op":    "optimism",
	"apt":   "aptos",
	"sui":   "sui",
	"inj":   "injective-protocol",
	"pepe":  "pepe",
	"yfi":   "yearn-finance",
	"zec":   "zcash",
	"dash":  "dash",
	"comp":  "compound-governance-token",
	"sushi": "sushi",
	"bat":   "basic-attention-token",
	"enj":   "enjincoin",
	"zil":   "zilliqa",
	"zrx":   "0x",
}
