package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func (c *cli) chatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Customer service chat",
	}

	conversations := &cobra.Command{
		Use:   "conversations",
		Short: "List conversations with their unread counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.Chat.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Show the unread message count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.app.Poller.PollOnce(cmd.Context())
			if err != nil {
				return err
			}
			c.printf("%d\n", n)
			return nil
		},
	}

	var employe int64
	messages := &cobra.Command{
		Use:   "messages CLIENT_ID",
		Short: "Show the conversation of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			items, err := c.app.Chat.Messages(cmd.Context(), clientID, optionalID(employe))
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}
	messages.Flags().Int64Var(&employe, "employe", 0, "only the exchange with this employee")

	var to int64
	send := &cobra.Command{
		Use:   "send MESSAGE",
		Short: "Send a message to customer service (client)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.app.Chat.Send(cmd.Context(), args[0], optionalID(to))
			if err != nil {
				return err
			}
			return c.print(msg)
		},
	}
	send.Flags().Int64Var(&to, "employe", 0, "address a specific employee")

	reply := &cobra.Command{
		Use:   "reply CLIENT_ID MESSAGE",
		Short: "Reply to a client (staff)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := c.app.Chat.Reply(cmd.Context(), clientID, args[1])
			if err != nil {
				return err
			}
			return c.print(msg)
		},
	}

	del := &cobra.Command{
		Use:   "delete CLIENT_ID MESSAGE_ID",
		Short: "Delete one of your messages (admins may delete any)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			messageID, err := parseID(args[1])
			if err != nil {
				return err
			}
			items, err := c.app.Chat.Messages(cmd.Context(), clientID, nil)
			if err != nil {
				return err
			}
			for _, m := range items {
				if m.ID == messageID {
					if err := c.app.Chat.Delete(cmd.Context(), m); err != nil {
						return err
					}
					c.printf("message %d deleted\n", messageID)
					return nil
				}
			}
			return apperrors.NotFound("message", args[1])
		},
	}

	read := &cobra.Command{
		Use:   "read MESSAGE_ID",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Chat.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("message %d marked as read\n", id)
			return nil
		},
	}

	var readEmploye int64
	readConversation := &cobra.Command{
		Use:   "read-conversation CLIENT_ID",
		Short: "Mark a whole conversation as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Chat.MarkConversationRead(cmd.Context(), clientID, optionalID(readEmploye)); err != nil {
				return err
			}
			c.printf("conversation %d marked as read\n", clientID)
			return nil
		},
	}
	readConversation.Flags().Int64Var(&readEmploye, "employe", 0, "only the exchange with this employee")

	assign := &cobra.Command{
		Use:   "assign CLIENT_ID EMPLOYE_ID",
		Short: "Assign a conversation to an employee (staff)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			employeID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := c.app.Chat.Assign(cmd.Context(), clientID, employeID); err != nil {
				return err
			}
			c.printf("conversation %d assigned to %d\n", clientID, employeID)
			return nil
		},
	}

	var polls int
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll the unread count until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			seen := -1
			unsubscribe := c.app.Poller.SubscribeUnread(func(n int) {
				seen++
				if seen == 0 {
					return
				}
				fmt.Fprintf(c.opts.Stdout, "unread: %d\n", n)
				if polls > 0 && seen >= polls {
					cancel()
				}
			})
			defer unsubscribe()

			return c.app.Poller.Run(ctx)
		},
	}
	watch.Flags().IntVar(&polls, "polls", 0, "stop after this many polls (0 = until interrupted)")

	cmd.AddCommand(conversations, unread, messages, send, reply, del, read, readConversation, assign, watch)
	return cmd
}
