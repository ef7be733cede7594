package cli

func (c *RootCommand) initFlags() {
	c.PersistentFlags().StringVarP(
		&c.Options.ConfigPath,
		"config",
		"c",
		"",
		"Path to the .env configuration file",
	)
}

func (c *SimulateCommand) initFlags() {
	f := c.Flags()
	f.IntVarP(&c.Overrides.Workers, "workers", "w", 0, "Number of concurrent workers")
	f.IntVarP(&c.Overrides.Transactions, "transactions", "n", 0, "Number of transactions to run")
	f.Float64Var(&c.Overrides.AbortRatio, "abort-ratio", 0, "Share of transactions that abort on purpose")
	f.StringVarP(&c.Overrides.ReportPath, "report", "r", "", "Where to write the JSON report")
	f.Uint64Var(&c.Overrides.Seed, "seed", 0, "Workload seed, random when zero")
}
