package mailer

var templateSubjects = map[string]string{
	TemplateAccountBreached: "Your challenge account has been breached",
	TemplateRuleWarning:     "Rule warning on your challenge account",
}

// Template bodies are deliberately plain: transactional notices, not marketing.
var templateBodies = map[string]string{
	TemplateAccountBreached: `
<p>Hi {{.FirstName}},</p>
<p>Unfortunately your ${{printf "%.0f" .AccountSize}} challenge account has been breached.</p>
<ul>
  <li><b>Reason:</b> {{.Reason}}</li>
  <li><b>Details:</b> {{.Details}}</li>
  <li><b>Final balance:</b> ${{printf "%.2f" .FinalBalance}}</li>
  <li><b>Total P&amp;L:</b> ${{printf "%.2f" .TotalProfitLoss}}</li>
  <li><b>Max drawdown reached:</b> {{printf "%.2f" .MaxDrawdownReached}}%</li>
  <li><b>Trading days completed:</b> {{.TradingDays}}</li>
</ul>
<p>You can restart with a discounted reset: <a href="{{.ResetOfferURL}}">claim your reset offer</a>.</p>
<p>— The Fund8r Team</p>
`,
	TemplateRuleWarning: `
<p>Hi {{.FirstName}},</p>
<p>Your challenge account is approaching the <b>{{.WarningType}}</b> limit.</p>
<ul>
  <li><b>Severity:</b> {{.Severity}}</li>
  <li><b>Current:</b> {{printf "%.2f" .CurrentValue}}%</li>
  <li><b>Limit:</b> {{printf "%.2f" .LimitValue}}%</li>
  <li><b>Limit used:</b> {{.ThresholdPercent}}%</li>
</ul>
<p>Review your open risk on the <a href="{{.DashboardURL}}">dashboard</a> before the limit is hit.</p>
<p>— The Fund8r Team</p>
`,
}
