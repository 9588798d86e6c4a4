package main

import (
	"fmt"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/notify"
	"github.com/Bessima/orderflow/internal/orderstore"
	"github.com/Bessima/orderflow/internal/repository"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch --user N",
	Short: "Follow the order change feed of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := loadConfig()
		brokers := conf.KafkaBrokerList()
		if len(brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is not set")
		}

		database, err := db.NewDB(cmd.Context(), conf.DatabaseDNS)
		if err != nil {
			return err
		}
		defer database.Close()

		orders, err := repository.NewOrderRepository(database).ListByUser(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to load orders: %w", err)
		}
		store := orderstore.New(userID)
		store.Load(orders)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "loaded %d orders, waiting for changes\n", len(orders))

		consumer := notify.NewConsumer(brokers, conf.KafkaTopic, fmt.Sprintf("ordersctl-watch-%d", userID))
		defer consumer.Close()

		return consumer.Subscribe(cmd.Context(), func(change notify.Change) {
			if change.UserID != userID {
				return
			}
			store.HandleChange(change)
			status := "-"
			if order, ok := store.Get(change.OrderID); ok {
				status = string(order.Status)
			}
			fmt.Fprintf(out, "%s %s order=%d status=%s total=%d\n",
				change.At.Format("15:04:05"), change.EventType, change.OrderID, status, len(store.List()))
		})
	},
}

func init() {
	requireUser(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
