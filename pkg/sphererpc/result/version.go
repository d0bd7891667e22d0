package result

type (
	// Version model used for reporting server version
	// info.
	Version struct {
		UserAgent string   `json:"useragent"`
		Contract  string   `json:"contract"`
		Protocol  Protocol `json:"protocol"`
		RPC       RPC      `json:"rpc"`
	}

	// RPC represents the RPC server configuration.
	RPC struct {
		MaxWebSocketClients int `json:"maxwebsocketclients"`
		MaxBatchSize        int `json:"maxbatchsize"`
	}

	// Protocol represents network-dependent parameters.
	Protocol struct {
		AddressVersion              byte   `json:"addressversion"`
		MillisecondsPerBlock        int    `json:"msperblock"`
		MaxValidUntilBlockIncrement uint32 `json:"maxvaliduntilblockincrement"`
		MaxTransactionsPerBlock     uint16 `json:"maxtransactionsperblock"`
		MemoryPoolMaxTransactions   int    `json:"memorypoolmaxtransactions"`
	}
)
