package page

// BindingName is the runtime binding the relay script reports through
const BindingName = "__floatcheckBridge"

// companionScript runs in the page world and answers catalog requests with
// the page's listing catalog.
const companionScript = `(() => {
	if (window.__floatcheckCompanion) return true;
	window.__floatcheckCompanion = true;
	window.addEventListener('message', (e) => {
		if (e.data && e.data.type == 'requestListingInfo') {
			window.postMessage({
				type: 'listingInfo',
				listingInfo: window.g_rgListingInfo || {}
			}, '*');
		}
	});
	return true;
})();`

// relayScript forwards catalog replies and button clicks to the binding and
// installs the row scan used to attach float containers.
const relayScript = `(() => {
	if (window.__floatcheckRelay) return true;
	window.__floatcheckRelay = true;

	const send = (payload) => {
		if (typeof window.__floatcheckBridge === 'function') {
			window.__floatcheckBridge(JSON.stringify(payload));
		}
	};

	window.addEventListener('message', (e) => {
		if (e.data && e.data.type == 'listingInfo') {
			send({ kind: 'bridge', message: e.data });
		}
	});

	const rowSelector = '#searchResultsRows .market_listing_row.market_recent_listing_row';

	window.__floatcheckRows = () =>
		Array.from(document.querySelectorAll(rowSelector)).map((row) => row.id.replace('listing_', ''));

	const addAllButton = () => {
		const table = document.querySelector('#searchResultsTable');
		if (!table) return;

		const parent = document.createElement('div');
		parent.style.padding = '10px';
		parent.style.marginTop = '10px';
		parent.style.backgroundColor = 'rgba(0, 0, 0, 0.2)';

		const button = document.createElement('a');
		button.id = 'allfloatbutton';
		button.classList.add('btn_green_white_innerfade', 'btn_small');
		button.addEventListener('click', () => send({ kind: 'all' }));
		parent.appendChild(button);

		const span = document.createElement('span');
		span.innerText = 'Get All Floats';
		button.appendChild(span);

		table.insertBefore(parent, document.querySelector('#searchResultsRows'));
	};

	window.__floatcheckScan = () => {
		const added = [];
		const rows = document.querySelectorAll(rowSelector);

		for (const row of rows) {
			const id = row.id.replace('listing_', '');
			if (document.getElementById('item_' + id + '_floatdiv')) continue;

			const name = row.querySelector('#listing_' + id + '_name');
			if (!name) continue;

			const div = document.createElement('div');
			div.style.display = 'inline';
			div.style.textAlign = 'left';
			div.id = 'item_' + id + '_floatdiv';
			name.parentElement.appendChild(div);

			const button = document.createElement('a');
			button.classList.add('btn_green_white_innerfade', 'btn_small', 'floatbutton');
			button.addEventListener('click', () => send({ kind: 'float', listingId: id }));
			div.appendChild(button);

			const span = document.createElement('span');
			span.innerText = 'Get Float';
			button.appendChild(span);

			for (const cls of ['floatmessage', 'itemfloat', 'itemseed']) {
				const child = document.createElement('div');
				child.classList.add(cls);
				div.appendChild(child);
			}
			added.push(id);
		}

		if (!document.querySelector('#allfloatbutton') && rows.length > 0) addAllButton();
		return added;
	};
	return true;
})();`

const hasFloatDivJS = `!!document.getElementById(%s)`

const setButtonLabelJS = `(() => {
	const div = document.getElementById(%s);
	if (!div) return false;
	const span = div.querySelector('span');
	if (span) span.innerText = %s;
	return true;
})()`

const setMessageJS = `(() => {
	const div = document.getElementById(%s);
	if (!div) return false;
	const msg = div.querySelector('.floatmessage');
	if (msg) msg.innerText = %s;
	return true;
})()`

const showFloatJS = `(() => {
	const div = document.getElementById(%s);
	if (!div) return false;
	const button = div.querySelector('.floatbutton');
	if (button) div.removeChild(button);
	const msg = div.querySelector('.floatmessage');
	if (msg) div.removeChild(msg);
	const floatEl = div.querySelector('.itemfloat');
	if (floatEl) floatEl.innerText = %s;
	const seed = div.querySelector('.itemseed');
	if (seed) seed.innerText = %s;
	return true;
})()`

const listingIDsJS = `window.__floatcheckRows ? window.__floatcheckRows() : []`

const scanJS = `window.__floatcheckScan ? window.__floatcheckScan() : []`

const postMessageJS = `(() => { window.postMessage(%s, '*'); return true; })()`
