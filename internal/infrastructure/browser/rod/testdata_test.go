package rod

// Pages served to the browser tests.
const (
	OptOutFormHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="optout" onsubmit="event.preventDefault(); document.getElementById('result').innerHTML = '<p class=\'done\'>Your request has been received</p>';">
		<input id="first" type="text" name="first" />
		<input id="email" type="email" name="email" />
		<select id="state" name="state">
			<option value="CA">California</option>
			<option value="IL">Illinois</option>
		</select>
		<input id="agree" type="checkbox" name="agree" />
		<button id="submit" type="submit">Submit</button>
	</form>
	<div id="result"></div>
</body>
</html>`

	ResultsHTML = `<!DOCTYPE html>
<html>
<body>
	<div class="card"><a href="#one">One</a></div>
	<div class="card"><a href="#two">Two</a></div>
	<div class="card"><a href="#three">Three</a></div>
	<div id="picked"></div>
	<script>
		document.querySelectorAll('.card a').forEach(function (a) {
			a.addEventListener('click', function () {
				document.getElementById('picked').textContent = a.textContent;
			});
		});
	</script>
</body>
</html>`
)
