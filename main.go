package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveNoQueue bool
	configPath   string

	scoreProtein       float64
	scoreFat           float64
	scoreCarbohydrates float64
	scoreFiber         float64
)

var rootCmd = &cobra.Command{
	Use:   "proteinrank",
	Short: "proteinrank 條碼營養評分服務",
	Long: `proteinrank 查詢 Open Food Facts 的商品資料，以蛋白質對脂肪與淨碳水的比例計算分數。
不帶子命令時等同 serve。`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "啟動 HTTP API 與 scan queue worker",
	RunE:  runServe,
}

var scoreCmd = &cobra.Command{
	Use:     "score",
	Short:   "直接以四個營養素計算分數",
	Example: `  proteinrank score --protein 20 --fat 5 --carbohydrates 10 --fiber 5`,
	Args:    cobra.NoArgs,
	RunE:    runScore,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "查詢單一條碼並顯示分數",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-dir", "", "config.yml / .env 所在目錄")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().IntVar(&servePort, "port", 0, "HTTP port，預設使用 router.port")
		cmd.Flags().BoolVar(&serveNoQueue, "no-queue", false, "不啟動 rabbitmq consumer")
	}

	scoreCmd.Flags().Float64Var(&scoreProtein, "protein", 0, "蛋白質 (g/100g)")
	scoreCmd.Flags().Float64Var(&scoreFat, "fat", 0, "脂肪 (g/100g)")
	scoreCmd.Flags().Float64Var(&scoreCarbohydrates, "carbohydrates", 0, "碳水化合物 (g/100g)")
	scoreCmd.Flags().Float64Var(&scoreFiber, "fiber", 0, "膳食纖維 (g/100g)")

	rootCmd.AddCommand(serveCmd, scoreCmd, lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
