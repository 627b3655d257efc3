package cli

import (
	"context"
	"fmt"

	"gmailarchive/internal/app"
	"gmailarchive/internal/interfaces/render"
)

// runList is the default command: authenticate, fetch unread mail, classify
// it and print the table.
func runList(ctx context.Context, rt *runtime) error {
	rt.msg.Banner(bannerTitle, bannerTagline)

	opts := rt.appOptions()
	mailbox, err := app.ConnectGmail(ctx, opts)
	if err != nil {
		rt.msg.Error("Authentication failed! Please check your credentials file.")
		rt.msg.Error(err.Error())
		return reportedError{err: fmt.Errorf("authenticate: %w", err)}
	}
	rt.msg.Success("Successfully authenticated with Gmail!")

	a, err := app.New(mailbox, mailbox, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	emails := a.ListUnread.Execute(ctx, rt.opts.maxResults)

	if len(emails) > 0 {
		rt.msg.Info(fmt.Sprintf("Classifying %d emails using OpenAI!", len(emails)))
		emails = a.Classify.Execute(ctx, emails)
		rt.msg.Success(fmt.Sprintf("Successfully classified %d emails!", len(emails)))
	}

	return render.NewTable(rt.out, rt.logger).Render(emails, rt.opts.maxResults)
}
